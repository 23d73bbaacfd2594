package ddbrows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

func isThrottle(err error) bool {
	var pte *types.ProvisionedThroughputExceededException
	if errors.As(err, &pte) {
		return true
	}
	var rle *types.RequestLimitExceeded
	if errors.As(err, &rle) {
		return true
	}
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "ThrottlingException"
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// withRetry calls fn, retrying throttling errors with backoff.
func withRetry[T any](ctx context.Context, r *Reader, op string, fn func() (T, error)) (T, error) {
	for attempt := 0; ; attempt++ {
		res, err := fn()
		if err == nil {
			return res, nil
		}
		if !isThrottle(err) || attempt >= r.opts.maxRetries {
			var zero T
			return zero, fmt.Errorf("%s failed: %w", op, err)
		}
		wait := r.opts.backoff(attempt + 1)
		r.log.DebugContext(ctx, "throttled, retrying", "op", op, "attempt", attempt+1, "wait", wait)
		if err := sleep(ctx, wait); err != nil {
			var zero T
			return zero, err
		}
	}
}
