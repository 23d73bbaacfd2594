package tablebuilder

import (
	"github.com/acksell/ddbtable/dynamodb/cell"
	"github.com/acksell/ddbtable/dynamodb/frame"
)

// accumulator tracks, for one buffer window, the join of every kind seen
// per column, keeping columns in first-seen order.
type accumulator struct {
	cols  []frame.Column
	index map[string]int
}

func newAccumulator() *accumulator {
	return &accumulator{index: make(map[string]int)}
}

func (a *accumulator) observe(name string, k cell.Kind) {
	if k == 0 {
		return
	}
	if i, ok := a.index[name]; ok {
		a.cols[i].Kind = cell.Join(a.cols[i].Kind, k)
		return
	}
	a.index[name] = len(a.cols)
	a.cols = append(a.cols, frame.Column{Name: name, Kind: k})
}

func (a *accumulator) snapshot() frame.Schema {
	cols := make([]frame.Column, len(a.cols))
	copy(cols, a.cols)
	return frame.Schema{Columns: cols}
}

func (a *accumulator) reset() {
	a.cols = a.cols[:0]
	clear(a.index)
}
