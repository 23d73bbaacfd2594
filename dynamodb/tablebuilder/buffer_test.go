package tablebuilder

import (
	"testing"

	"github.com/acksell/ddbtable/dynamodb/cell"
	"github.com/acksell/ddbtable/dynamodb/frame"
	"github.com/stretchr/testify/assert"
)

func TestAccumulator(t *testing.T) {
	a := newAccumulator()
	a.observe("b", cell.Number)
	a.observe("a", cell.String)
	a.observe("b", cell.String)
	a.observe("c", 0)
	a.observe("a", cell.Null)

	assert.Equal(t, frame.Schema{Columns: []frame.Column{
		{Name: "b", Kind: cell.Any},
		{Name: "a", Kind: cell.String},
	}}, a.snapshot())

	snap := a.snapshot()
	a.reset()
	assert.Equal(t, 0, a.snapshot().Len())
	assert.Equal(t, 2, snap.Len(), "snapshot must not alias accumulator state")

	a.observe("z", cell.Bool)
	assert.Equal(t, []string{"z"}, a.snapshot().Names())
}

func TestRowBuffer(t *testing.T) {
	b := newRowBuffer(4)
	b.append("r0", rec("x", cell.Str("1")))
	b.append("r1", rec("y", cell.NumberOf(2), "x", cell.NumberOf(3)))
	assert.Equal(t, 2, b.len())

	rows, observed := b.drain()
	assert.Equal(t, 0, b.len())
	assert.Equal(t, []string{"r0", "r1"}, []string{rows[0].id, rows[1].id})
	assert.Equal(t, frame.Schema{Columns: []frame.Column{
		{Name: "x", Kind: cell.Any},
		{Name: "y", Kind: cell.Number},
	}}, observed)

	b.append("r2", rec("q", cell.Boolean(true)))
	rows, observed = b.drain()
	assert.Len(t, rows, 1)
	assert.Equal(t, []string{"q"}, observed.Names())
}
