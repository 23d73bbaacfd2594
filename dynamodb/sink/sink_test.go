package sink

import (
	"errors"
	"fmt"
	"testing"

	"github.com/acksell/ddbtable/dynamodb/cell"
	"github.com/acksell/ddbtable/dynamodb/frame"
	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = frame.MustSchema(
	frame.Column{Name: "id", Kind: cell.String},
	frame.Column{Name: "doc", Kind: cell.Any},
)

func newTestBadger(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := OpenBadger(BadgerOptions{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func testFactories(t *testing.T) map[string]frame.SinkFactory {
	return map[string]frame.SinkFactory{
		"memory": Memory(),
		"badger": newTestBadger(t).Factory(),
	}
}

func TestSink_RoundTrip(t *testing.T) {
	values := []cell.Value{
		cell.Missing,
		cell.NullValue(),
		cell.Str("s"),
		cell.MustNum("-12.5"),
		cell.Bin([]byte{0, 1, 2}),
		cell.Boolean(true),
		cell.StrSet("a", "b"),
		cell.NumSet("1", "2"),
		cell.BinSet([]byte("x"), []byte("y")),
		cell.ListOf(cell.Str("nested"), cell.ListOf(cell.NumberOf(1)), cell.Missing),
		cell.MapOf(map[string]cell.Value{
			"inner": cell.MapOf(map[string]cell.Value{"deep": cell.Boolean(false)}),
			"n":     cell.NumberOf(3),
		}),
	}

	for name, factory := range testFactories(t) {
		t.Run(name, func(t *testing.T) {
			s, err := factory(testSchema)
			require.NoError(t, err)
			assert.Equal(t, testSchema, s.Schema())

			for i, v := range values {
				require.NoError(t, s.Append(frame.Row{
					ID:    fmt.Sprintf("Row%d", i),
					Cells: []cell.Value{cell.Str(fmt.Sprint(i)), v},
				}))
			}

			tbl, err := s.Close()
			require.NoError(t, err)
			assert.Equal(t, len(values), tbl.Len())
			assert.Equal(t, testSchema, tbl.Schema())

			rows, err := frame.Collect(tbl)
			require.NoError(t, err)
			require.Len(t, rows, len(values))
			for i, r := range rows {
				assert.Equal(t, fmt.Sprintf("Row%d", i), r.ID)
				assert.True(t, values[i].Equal(r.Cells[1]), "row %d: want %v, got %v", i, values[i], r.Cells[1])
			}

			docs, err := frame.ColumnValues(tbl, "doc")
			require.NoError(t, err)
			require.Len(t, docs, len(values))
			assert.True(t, values[3].Equal(docs[3]))

			none, err := frame.ColumnValues(tbl, "nope")
			require.NoError(t, err)
			assert.Nil(t, none)
		})
	}
}

func TestSink_Contract(t *testing.T) {
	for name, factory := range testFactories(t) {
		t.Run(name, func(t *testing.T) {
			s, err := factory(testSchema)
			require.NoError(t, err)

			err = s.Append(frame.Row{ID: "short", Cells: []cell.Value{cell.Str("x")}})
			assert.ErrorIs(t, err, frame.ErrRowWidth)

			_, err = s.Close()
			require.NoError(t, err)

			assert.ErrorIs(t, s.Append(frame.Row{Cells: make([]cell.Value, 2)}), frame.ErrSinkClosed)
			_, err = s.Close()
			assert.ErrorIs(t, err, frame.ErrSinkClosed)
		})
	}
}

func TestBadgerStore_SinksAreIsolated(t *testing.T) {
	store := newTestBadger(t)
	factory := store.Factory()

	first, err := factory(testSchema)
	require.NoError(t, err)
	second, err := factory(testSchema)
	require.NoError(t, err)

	for i := 0; i < 300; i++ {
		require.NoError(t, first.Append(frame.Row{ID: fmt.Sprintf("a%d", i), Cells: []cell.Value{cell.Str("a"), cell.NumberOf(i)}}))
		if i%2 == 0 {
			require.NoError(t, second.Append(frame.Row{ID: fmt.Sprintf("b%d", i), Cells: []cell.Value{cell.Str("b"), cell.NumberOf(i)}}))
		}
	}
	t1, err := first.Close()
	require.NoError(t, err)
	t2, err := second.Close()
	require.NoError(t, err)

	rows1, err := frame.Collect(t1)
	require.NoError(t, err)
	rows2, err := frame.Collect(t2)
	require.NoError(t, err)
	require.Len(t, rows1, 300)
	require.Len(t, rows2, 150)
	for i, r := range rows1 {
		// sequence keys keep append order even past 255 rows
		assert.Equal(t, fmt.Sprintf("a%d", i), r.ID)
	}

	rel, ok := t1.(frame.Releaser)
	require.True(t, ok)
	require.NoError(t, rel.Release())
	assert.Error(t, t1.Scan(func(frame.Row) error { return nil }))

	rows2, err = frame.Collect(t2)
	require.NoError(t, err)
	assert.Len(t, rows2, 150, "releasing one table must not touch another")
}

func TestMemTable(t *testing.T) {
	_, err := NewMemTable(testSchema, []frame.Row{{ID: "x", Cells: []cell.Value{cell.Str("x")}}})
	assert.ErrorIs(t, err, frame.ErrRowWidth)

	tbl, err := NewMemTable(testSchema, []frame.Row{{ID: "x", Cells: []cell.Value{cell.Str("x"), cell.Missing}}})
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())

	stop := errors.New("stop")
	assert.ErrorIs(t, tbl.Scan(func(frame.Row) error { return stop }), stop)

	require.NoError(t, tbl.Release())
	assert.Equal(t, 0, tbl.Len())
}

func TestBadgerStore_ReopenDropsOldRows(t *testing.T) {
	dir := t.TempDir()

	store, err := OpenBadger(BadgerOptions{Path: dir})
	require.NoError(t, err)
	s, err := store.Factory()(testSchema)
	require.NoError(t, err)
	require.NoError(t, s.Append(frame.Row{ID: "old", Cells: []cell.Value{cell.Str("x"), cell.Missing}}))
	_, err = s.Close()
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = OpenBadger(BadgerOptions{Path: dir})
	require.NoError(t, err)
	defer store.Close()
	s, err = store.Factory()(testSchema)
	require.NoError(t, err)
	tbl, err := s.Close()
	require.NoError(t, err)

	rows, err := frame.Collect(tbl)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSink_SchemaIsACopy(t *testing.T) {
	for name, factory := range testFactories(t) {
		t.Run(name, func(t *testing.T) {
			s, err := factory(testSchema)
			require.NoError(t, err)
			s.Schema().Columns[0].Name = "changed"
			assert.Equal(t, "id", s.Schema().Columns[0].Name)

			tbl, err := s.Close()
			require.NoError(t, err)
			tbl.Schema().Columns[1].Kind = cell.Bool
			assert.Equal(t, testSchema, tbl.Schema())
		})
	}
}

func TestSink_Cancel(t *testing.T) {
	for name, factory := range testFactories(t) {
		t.Run(name, func(t *testing.T) {
			s, err := factory(testSchema)
			require.NoError(t, err)
			require.NoError(t, s.Append(frame.Row{ID: "r", Cells: []cell.Value{cell.Str("x"), cell.Missing}}))

			require.NoError(t, s.Cancel())
			require.NoError(t, s.Cancel())
			assert.ErrorIs(t, s.Append(frame.Row{Cells: make([]cell.Value, 2)}), frame.ErrSinkClosed)
			_, err = s.Close()
			assert.ErrorIs(t, err, frame.ErrSinkClosed)
		})
	}
}

// storedRows counts the rows a badger sink has committed.
func storedRows(t *testing.T, store *BadgerStore, id uint64) int {
	t.Helper()
	n := 0
	err := store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = sinkPrefix(id)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	require.NoError(t, err)
	return n
}

func TestBadgerSink_CancelDropsCommittedRows(t *testing.T) {
	store := newTestBadger(t)
	factory := store.Factory()

	keep, err := factory(testSchema)
	require.NoError(t, err)
	require.NoError(t, keep.Append(frame.Row{ID: "k", Cells: []cell.Value{cell.Str("k"), cell.Missing}}))
	kept, err := keep.Close()
	require.NoError(t, err)

	// A sink whose Close succeeded still owns its rows until cancelled.
	s, err := factory(testSchema)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Append(frame.Row{ID: fmt.Sprint(i), Cells: []cell.Value{cell.Str("x"), cell.NumberOf(i)}}))
	}
	_, err = s.Close()
	require.NoError(t, err)
	id := s.(*badgerSink).id
	require.Equal(t, 50, storedRows(t, store, id))

	require.NoError(t, s.Cancel())
	assert.Equal(t, 0, storedRows(t, store, id))

	rows, err := frame.Collect(kept)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "cancelling one sink must not touch another")
}
