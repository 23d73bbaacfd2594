package tablebuilder

import (
	"fmt"
	"log/slog"

	"github.com/acksell/ddbtable/dynamodb/cell"
	"github.com/acksell/ddbtable/dynamodb/frame"
)

type state uint8

const (
	// stateEmpty: no sink yet, rows may be buffered.
	stateEmpty state = iota
	// stateActive: a sink exists with a committed schema.
	stateActive
	stateClosed
	// stateBroken: a sink call failed part way through a flush.
	stateBroken
)

// Stats counts what a Builder has done so far.
type Stats struct {
	Rows       int
	Flushes    int
	Migrations int
	Columns    int
}

// Builder assembles rows with varying fields into a single table. See the
// package documentation for the algorithm.
//
// A Builder is single-use and not safe for concurrent use.
type Builder struct {
	factory frame.SinkFactory
	opts    options
	log     *slog.Logger

	state  state
	buf    *rowBuffer
	sink   frame.Sink
	schema frame.Schema
	table  frame.Table
	stats  Stats
}

// New returns an empty Builder whose sinks are created by factory.
func New(factory frame.SinkFactory, opts ...Option) *Builder {
	o := options{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	if o.capacity < 1 {
		o.capacity = DefaultCapacity
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{
		factory: factory,
		opts:    o,
		log:     o.logger,
		buf:     newRowBuffer(o.capacity),
	}
}

// AddRow buffers a row. When the buffer reaches capacity it is flushed into
// the sink, which may migrate the sink to a wider schema.
//
// The Builder keeps rec until the row is flushed; callers must not modify it
// after the call.
func (b *Builder) AddRow(id string, rec *frame.Record) error {
	if err := b.writable(); err != nil {
		return err
	}
	if rec == nil {
		rec = frame.NewRecord(0)
	}
	b.buf.append(id, rec)
	b.stats.Rows++
	if b.buf.len() >= b.opts.capacity {
		return b.flush()
	}
	return nil
}

// AddValues is AddRow for a row given as parallel name and value slices.
func (b *Builder) AddValues(id string, names []string, values []cell.Value) error {
	if err := b.writable(); err != nil {
		return err
	}
	if len(names) != len(values) {
		return &ArityMismatchError{Names: len(names), Values: len(values)}
	}
	rec := frame.NewRecord(len(names))
	for i, name := range names {
		rec.Set(name, values[i])
	}
	return b.AddRow(id, rec)
}

// Close flushes any buffered rows and closes the sink. The Builder accepts
// no rows afterwards.
func (b *Builder) Close() error {
	if err := b.writable(); err != nil {
		return err
	}
	if err := b.flush(); err != nil {
		return err
	}
	if b.sink != nil {
		t, err := b.sink.Close()
		if err != nil {
			b.abort()
			return fmt.Errorf("close sink: %w", err)
		}
		b.table = t
		b.sink = nil
	}
	b.state = stateClosed
	b.log.Debug("table closed", "rows", b.stats.Rows, "columns", b.schema.Len(), "migrations", b.stats.Migrations)
	return nil
}

// Table returns the finished table. It fails with ErrNotClosed before Close.
// A Builder that never received a row returns an empty table with no
// columns.
func (b *Builder) Table() (frame.Table, error) {
	switch b.state {
	case stateClosed:
	case stateBroken:
		return nil, ErrBroken
	default:
		return nil, ErrNotClosed
	}
	if b.table != nil {
		return b.table, nil
	}
	s, err := b.factory(frame.Schema{})
	if err != nil {
		return nil, fmt.Errorf("create empty sink: %w", err)
	}
	t, err := s.Close()
	if err != nil {
		return nil, fmt.Errorf("close empty sink: %w", err)
	}
	b.table = t
	return t, nil
}

// Schema returns the schema committed to the current sink. Buffered rows
// are not reflected until they are flushed.
func (b *Builder) Schema() frame.Schema {
	return b.schema.Clone()
}

func (b *Builder) Stats() Stats {
	s := b.stats
	s.Columns = b.schema.Len()
	return s
}

func (b *Builder) writable() error {
	switch b.state {
	case stateClosed:
		return ErrClosed
	case stateBroken:
		return ErrBroken
	}
	return nil
}

func (b *Builder) flush() error {
	if b.buf.len() == 0 {
		return nil
	}
	pending, observed := b.buf.drain()
	b.stats.Flushes++

	var err error
	if b.sink == nil {
		err = b.start(observed, pending)
	} else {
		err = b.extend(observed, pending)
	}
	if err != nil {
		b.abort()
	}
	return err
}

// abort marks the Builder broken and frees the active sink.
func (b *Builder) abort() {
	b.state = stateBroken
	if b.sink == nil {
		return
	}
	if err := b.sink.Cancel(); err != nil {
		b.log.Warn("cancel sink", "error", err)
	}
	b.sink = nil
}

// start creates the first sink from the schema observed in the first window.
func (b *Builder) start(observed frame.Schema, pending []pendingRow) error {
	s, err := b.factory(observed)
	if err != nil {
		return fmt.Errorf("create sink: %w", err)
	}
	b.sink = s
	b.schema = observed
	b.state = stateActive
	b.log.Debug("sink created", "schema", observed.String(), "rows", len(pending))
	return b.write(pending)
}

// extend writes a window into the active sink, migrating first if the
// window has columns the sink's schema does not accept.
func (b *Builder) extend(observed frame.Schema, pending []pendingRow) error {
	next, added, widened := b.widen(observed)
	if len(added) == 0 && len(widened) == 0 {
		b.log.Debug("flush", "rows", len(pending))
		return b.write(pending)
	}
	if err := b.migrate(next); err != nil {
		return err
	}
	b.log.Info("schema migrated",
		"added", added,
		"widened", widened,
		"rows_rewritten", b.stats.Rows-len(pending),
		"schema", next.String(),
	)
	return b.write(pending)
}

// widen computes the schema that accepts both the committed schema and
// observed. Existing columns keep their position; new columns are appended
// in observed order.
func (b *Builder) widen(observed frame.Schema) (next frame.Schema, added, widened []string) {
	next = b.schema.Clone()
	idx := b.schema.Lookup()
	for _, c := range observed.Columns {
		i, ok := idx[c.Name]
		if !ok {
			next.Columns = append(next.Columns, c)
			added = append(added, c.Name)
			continue
		}
		if !next.Columns[i].Kind.Accepts(c.Kind) {
			next.Columns[i].Kind = cell.Join(next.Columns[i].Kind, c.Kind)
			widened = append(widened, c.Name)
		}
	}
	return next, added, widened
}

// migrate replaces the active sink with one bound to next and copies every
// row written so far into it. Columns added by next read as Missing in the
// copied rows. On failure the old rows are released too.
func (b *Builder) migrate(next frame.Schema) error {
	old, err := b.sink.Close()
	if err != nil {
		return fmt.Errorf("close sink for migration: %w", err)
	}
	b.sink = nil
	s, err := b.factory(next)
	if err != nil {
		b.release(old)
		return fmt.Errorf("create migrated sink: %w", err)
	}
	// abort cancels s if copying fails.
	b.sink = s

	lookup := next.Lookup()
	oldCols := old.Schema().Columns
	pos := make([]int, len(oldCols))
	for i, c := range oldCols {
		pos[i] = lookup[c.Name]
	}
	err = old.Scan(func(r frame.Row) error {
		cells := make([]cell.Value, next.Len())
		for i, v := range r.Cells {
			cells[pos[i]] = v
		}
		return s.Append(frame.Row{ID: r.ID, Cells: cells})
	})
	if err != nil {
		b.release(old)
		return fmt.Errorf("copy rows into migrated sink: %w", err)
	}
	if rel, ok := old.(frame.Releaser); ok {
		if err := rel.Release(); err != nil {
			return fmt.Errorf("release migrated table: %w", err)
		}
	}

	b.schema = next
	b.stats.Migrations++
	return nil
}

// release frees a table the Builder no longer needs after a failure.
func (b *Builder) release(t frame.Table) {
	rel, ok := t.(frame.Releaser)
	if !ok {
		return
	}
	if err := rel.Release(); err != nil {
		b.log.Warn("release table", "error", err)
	}
}

// write appends pending rows to the active sink, laid out by its schema.
func (b *Builder) write(pending []pendingRow) error {
	lookup := b.schema.Lookup()
	for _, p := range pending {
		cells := make([]cell.Value, len(lookup))
		for _, f := range p.record.Fields() {
			if i, ok := lookup[f.Name]; ok {
				cells[i] = f.Value
			}
		}
		if err := b.sink.Append(frame.Row{ID: p.id, Cells: cells}); err != nil {
			return fmt.Errorf("append row %q: %w", p.id, err)
		}
	}
	return nil
}
