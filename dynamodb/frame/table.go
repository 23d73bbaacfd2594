package frame

import (
	"errors"

	"github.com/acksell/ddbtable/dynamodb/cell"
)

var (
	// ErrSinkClosed is returned by a Sink used after Close.
	ErrSinkClosed = errors.New("sink is closed")
	// ErrRowWidth is returned when a row does not have one cell per column.
	ErrRowWidth = errors.New("row width does not match schema")
)

// Row is a table row with one cell per schema column, in schema order.
type Row struct {
	ID    string
	Cells []cell.Value
}

// Sink is an append-only table writer bound to one schema. Close finalizes
// the sink and returns the written table.
// Cancel abandons the sink and frees whatever it has written, including rows
// left behind by a failed Close. It may be called at any time and more than
// once.
type Sink interface {
	Schema() Schema
	Append(Row) error
	Close() (Table, error)
	Cancel() error
}

// SinkFactory creates a Sink for a schema.
type SinkFactory func(Schema) (Sink, error)

// Table is a finished, read-only table.
type Table interface {
	Schema() Schema
	Len() int
	// Scan calls fn for every row in append order. A non-nil error from fn
	// stops the scan and is returned.
	Scan(fn func(Row) error) error
}

// Releaser is implemented by tables that hold resources which can be freed
// once the table is no longer needed.
type Releaser interface {
	Release() error
}

// Collect reads all rows of t into memory.
func Collect(t Table) ([]Row, error) {
	rows := make([]Row, 0, t.Len())
	err := t.Scan(func(r Row) error {
		rows = append(rows, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ColumnValues returns every value of the named column, or nil if the table
// has no such column.
func ColumnValues(t Table, name string) ([]cell.Value, error) {
	i := t.Schema().Index(name)
	if i < 0 {
		return nil, nil
	}
	vals := make([]cell.Value, 0, t.Len())
	err := t.Scan(func(r Row) error {
		vals = append(vals, r.Cells[i])
		return nil
	})
	return vals, err
}
