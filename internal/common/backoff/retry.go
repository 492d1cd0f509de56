package backoff

import (
	"context"
	"time"

	"github.com/dagucloud/athenahistory/internal/common/logger"
	"github.com/dagucloud/athenahistory/internal/common/logger/tag"
)

type (
	// Operation is a fallible call to be retried.
	Operation func(ctx context.Context) error

	// IsRetriableFunc reports whether err should trigger another attempt.
	IsRetriableFunc func(err error) bool
)

// Retry executes op until it succeeds, returns a non-retriable error, or the
// policy gives up. If isRetriable is nil, all errors are considered retriable.
// The attempt counter starts from zero on every call.
func Retry(ctx context.Context, op Operation, policy RetryPolicy, isRetriable IsRetriableFunc) error {
	if isRetriable == nil {
		isRetriable = func(_ error) bool { return true }
	}

	retrier := NewRetrier(policy)
	attempt := 0

	for {
		attempt++

		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Debug(ctx, "Retried operation succeeded", tag.Attempt(attempt))
			}
			return nil
		}

		if !isRetriable(err) {
			return err
		}

		interval, retryErr := retrier.Next(err)
		if retryErr != nil {
			logger.Warn(ctx, "Retry attempts exhausted", tag.Attempt(attempt), tag.Error(err))
			return err
		}

		logger.Debug(ctx, "Operation failed; scheduling retry",
			tag.Attempt(attempt),
			tag.Interval(interval),
			tag.Error(err),
		)

		if err := wait(ctx, interval); err != nil {
			return err
		}
	}
}

func wait(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
