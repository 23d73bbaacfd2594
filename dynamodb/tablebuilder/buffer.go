package tablebuilder

import (
	"github.com/acksell/ddbtable/dynamodb/frame"
)

type pendingRow struct {
	id     string
	record *frame.Record
}

// rowBuffer holds the rows of the current window together with the kinds
// observed in them. It does not enforce a capacity; the Builder does.
type rowBuffer struct {
	rows []pendingRow
	acc  *accumulator
}

func newRowBuffer(capacity int) *rowBuffer {
	return &rowBuffer{
		rows: make([]pendingRow, 0, capacity),
		acc:  newAccumulator(),
	}
}

func (b *rowBuffer) append(id string, rec *frame.Record) {
	b.rows = append(b.rows, pendingRow{id: id, record: rec})
	for _, f := range rec.Fields() {
		b.acc.observe(f.Name, f.Value.Kind())
	}
}

func (b *rowBuffer) len() int { return len(b.rows) }

// drain returns the buffered rows in arrival order and the schema observed
// in them, then empties the buffer.
func (b *rowBuffer) drain() ([]pendingRow, frame.Schema) {
	rows := b.rows
	observed := b.acc.snapshot()
	b.rows = make([]pendingRow, 0, cap(rows))
	b.acc.reset()
	return rows, observed
}
