// Package sink provides frame.Sink implementations: an in-memory sink and a
// BadgerDB-backed sink that spills rows to disk.
package sink

import (
	"fmt"

	"github.com/acksell/ddbtable/dynamodb/frame"
)

// Memory returns a factory for sinks that keep their rows in memory.
func Memory() frame.SinkFactory {
	return func(s frame.Schema) (frame.Sink, error) {
		return &memorySink{schema: s.Clone()}, nil
	}
}

type memorySink struct {
	schema frame.Schema
	rows   []frame.Row
	closed bool
}

var _ frame.Sink = &memorySink{}

func (s *memorySink) Schema() frame.Schema { return s.schema.Clone() }

func (s *memorySink) Append(r frame.Row) error {
	if s.closed {
		return frame.ErrSinkClosed
	}
	if err := checkWidth(s.schema, r); err != nil {
		return err
	}
	s.rows = append(s.rows, r)
	return nil
}

func (s *memorySink) Cancel() error {
	s.closed = true
	s.rows = nil
	return nil
}

func (s *memorySink) Close() (frame.Table, error) {
	if s.closed {
		return nil, frame.ErrSinkClosed
	}
	s.closed = true
	return &MemTable{schema: s.schema, rows: s.rows}, nil
}

// MemTable is a table held in memory.
type MemTable struct {
	schema frame.Schema
	rows   []frame.Row
}

var _ frame.Table = &MemTable{}

// NewMemTable wraps rows as a table. Rows must match the schema width.
func NewMemTable(schema frame.Schema, rows []frame.Row) (*MemTable, error) {
	for _, r := range rows {
		if err := checkWidth(schema, r); err != nil {
			return nil, err
		}
	}
	return &MemTable{schema: schema.Clone(), rows: rows}, nil
}

func (t *MemTable) Schema() frame.Schema { return t.schema.Clone() }

func (t *MemTable) Len() int { return len(t.rows) }

func (t *MemTable) Scan(fn func(frame.Row) error) error {
	for _, r := range t.rows {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// Release drops the table's rows.
func (t *MemTable) Release() error {
	t.rows = nil
	return nil
}

func checkWidth(s frame.Schema, r frame.Row) error {
	if len(r.Cells) != s.Len() {
		return fmt.Errorf("%w: row %q has %d cells, schema has %d columns", frame.ErrRowWidth, r.ID, len(r.Cells), s.Len())
	}
	return nil
}
