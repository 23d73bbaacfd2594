package sink

import (
	"fmt"
	"sync/atomic"

	"github.com/acksell/ddbtable/dynamodb/frame"
	"github.com/dgraph-io/badger/v4"
)

// BadgerStore spills sink rows into a BadgerDB database, so a table larger
// than memory can be built. One store can back many sinks; each sink writes
// under its own key prefix.
type BadgerStore struct {
	db     *badger.DB
	nextID atomic.Uint64
}

// BadgerOptions configures the BadgerDB store.
type BadgerOptions struct {
	// Path to the database directory. If empty, uses in-memory mode. The
	// directory is scratch space: whatever it holds is dropped on open.
	Path string
	// InMemory forces in-memory mode even if Path is set.
	InMemory bool
	// Logger for BadgerDB. If nil, logging is disabled.
	Logger badger.Logger
}

// OpenBadger opens (or creates) a BadgerDB-backed sink store.
func OpenBadger(opts BadgerOptions) (*BadgerStore, error) {
	badgerOpts := badger.DefaultOptions(opts.Path)

	inMemory := opts.Path == "" || opts.InMemory
	if inMemory {
		badgerOpts = badgerOpts.WithDir("").WithValueDir("").WithInMemory(true)
	}
	badgerOpts = badgerOpts.WithLogger(opts.Logger)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	// Sink ids restart at 1, so rows left by an earlier process would
	// collide with new ones.
	if !inMemory {
		if err := db.DropAll(); err != nil {
			db.Close()
			return nil, fmt.Errorf("clear badger db: %w", err)
		}
	}
	return &BadgerStore{db: db}, nil
}

// Close closes the database. Tables produced by the store are unusable
// afterwards.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Factory returns a frame.SinkFactory whose sinks write into s.
func (s *BadgerStore) Factory() frame.SinkFactory {
	return func(schema frame.Schema) (frame.Sink, error) {
		id := s.nextID.Add(1)
		return &badgerSink{
			db:     s.db,
			id:     id,
			schema: schema.Clone(),
			batch:  s.db.NewWriteBatch(),
		}, nil
	}
}

type badgerSink struct {
	db     *badger.DB
	id     uint64
	schema frame.Schema
	batch  *badger.WriteBatch
	seq    uint64

	closed    bool
	cancelled bool
}

var _ frame.Sink = &badgerSink{}

func (s *badgerSink) Schema() frame.Schema { return s.schema.Clone() }

func (s *badgerSink) Append(r frame.Row) error {
	if s.closed {
		return frame.ErrSinkClosed
	}
	if err := checkWidth(s.schema, r); err != nil {
		return err
	}
	val, err := encodeRow(r)
	if err != nil {
		return err
	}
	if err := s.batch.Set(rowKey(s.id, s.seq), val); err != nil {
		return fmt.Errorf("write row %q: %w", r.ID, err)
	}
	s.seq++
	return nil
}

func (s *badgerSink) Close() (frame.Table, error) {
	if s.closed {
		return nil, frame.ErrSinkClosed
	}
	s.closed = true
	if err := s.batch.Flush(); err != nil {
		return nil, fmt.Errorf("flush sink %d: %w", s.id, err)
	}
	return &BadgerTable{
		db:     s.db,
		prefix: sinkPrefix(s.id),
		schema: s.schema,
		n:      int(s.seq),
	}, nil
}

// Cancel discards pending writes and drops any rows the batch already
// committed.
func (s *badgerSink) Cancel() error {
	if s.cancelled {
		return nil
	}
	s.cancelled = true
	if !s.closed {
		s.closed = true
		s.batch.Cancel()
	}
	if err := s.db.DropPrefix(sinkPrefix(s.id)); err != nil {
		return fmt.Errorf("drop sink %d rows: %w", s.id, err)
	}
	return nil
}

// BadgerTable is a finished table whose rows live in BadgerDB.
type BadgerTable struct {
	db       *badger.DB
	prefix   []byte
	schema   frame.Schema
	n        int
	released bool
}

var _ frame.Table = &BadgerTable{}
var _ frame.Releaser = &BadgerTable{}

func (t *BadgerTable) Schema() frame.Schema { return t.schema.Clone() }

func (t *BadgerTable) Len() int { return t.n }

// Scan reads the rows back in append order.
func (t *BadgerTable) Scan(fn func(frame.Row) error) error {
	if t.released {
		return fmt.Errorf("scan released table")
	}
	return t.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = t.prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(t.prefix); it.ValidForPrefix(t.prefix); it.Next() {
			var row frame.Row
			if err := it.Item().Value(func(val []byte) error {
				var err error
				row, err = decodeRow(val)
				return err
			}); err != nil {
				return err
			}
			if err := fn(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// Release deletes the table's rows from the database.
func (t *BadgerTable) Release() error {
	if t.released {
		return nil
	}
	t.released = true
	if err := t.db.DropPrefix(t.prefix); err != nil {
		return fmt.Errorf("drop table rows: %w", err)
	}
	return nil
}
