package ddbrows

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/acksell/ddbtable/dynamodb/frame"
	"github.com/acksell/ddbtable/dynamodb/sink"
	"github.com/acksell/ddbtable/dynamodb/tablebuilder"
)

// BackoffFunc returns the wait before retry number attempt (starting at 1).
type BackoffFunc func(attempt int) time.Duration

// ExponentialBackoff returns a BackoffFunc that grows base by multiplier per
// attempt up to cap, with full jitter.
func ExponentialBackoff(base time.Duration, multiplier float64, cap time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		factor := 1.0
		for i := 1; i < attempt; i++ {
			factor *= multiplier
		}
		backoff := time.Duration(float64(base) * factor)
		if backoff > cap {
			backoff = cap
		}
		if backoff <= 0 {
			return 0
		}
		// Full jitter: random duration between 0 and backoff
		return time.Duration(rand.Int64N(int64(backoff)))
	}
}

// DefaultBackoff is [ExponentialBackoff] with 50ms base, 2x multiplier, 5s cap.
var DefaultBackoff = ExponentialBackoff(50*time.Millisecond, 2.0, 5*time.Second)

// DefaultMaxRetries bounds throttling retries and UnprocessedKeys rounds.
const DefaultMaxRetries = 5

type Option func(*options)

type options struct {
	capacity   int
	sink       frame.SinkFactory
	logger     *slog.Logger
	maxRetries int
	backoff    BackoffFunc
}

func defaultOptions() options {
	return options{
		capacity:   tablebuilder.DefaultCapacity,
		sink:       sink.Memory(),
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
	}
}

// WithCapacity sets the row buffer capacity of each builder.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithSink sets where result tables are stored. Defaults to memory.
func WithSink(f frame.SinkFactory) Option {
	return func(o *options) {
		o.sink = f
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMaxRetries sets how often a throttled request is retried. Zero
// disables retries.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		o.maxRetries = n
	}
}

// WithBackoff overrides [DefaultBackoff].
func WithBackoff(fn BackoffFunc) Option {
	return func(o *options) {
		o.backoff = fn
	}
}
