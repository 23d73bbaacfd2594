package tablebuilder

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when a row is added to, or Close is called on, a
	// closed Builder.
	ErrClosed = errors.New("tablebuilder: builder is closed")
	// ErrNotClosed is returned by Table before Close.
	ErrNotClosed = errors.New("tablebuilder: builder is not closed")
	// ErrBroken is returned by every call after a sink error left the
	// Builder in an undefined state.
	ErrBroken = errors.New("tablebuilder: builder is unusable after a sink error")
)

// ArityMismatchError is returned when a row is given as parallel name and
// value slices of different lengths.
type ArityMismatchError struct {
	Names  int
	Values int
}

func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("tablebuilder: %d column names but %d values", e.Names, e.Values)
}
