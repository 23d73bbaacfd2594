package tablebuilder

import "log/slog"

// DefaultCapacity is the number of rows buffered before a flush.
const DefaultCapacity = 100

type Option func(*options)

type options struct {
	capacity int
	logger   *slog.Logger
}

// WithCapacity sets how many rows are buffered between flushes. Values below
// one fall back to DefaultCapacity.
//
// Larger windows mean fewer schema migrations on heterogeneous input, at the
// cost of holding more rows in memory.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithLogger sets the logger for flush and migration events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
