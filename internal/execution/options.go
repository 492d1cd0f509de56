package execution

import (
	"context"
	"errors"
	"time"

	"github.com/dagucloud/athenahistory/internal/common/backoff"
	"github.com/dagucloud/athenahistory/internal/common/logger"
	"github.com/dagucloud/athenahistory/internal/common/logger/tag"
)

// Operation names passed to throttle hooks.
const (
	OpList   = "list"
	OpLookup = "lookup"
)

// DefaultBackoffUnit is the first throttling wait; later waits double up to
// sixteen units.
const DefaultBackoffUnit = time.Second

type options struct {
	policy     backoff.RetryPolicy
	onThrottle func(op string)
}

// Option configures a Lister or Batcher.
type Option func(*options)

// WithRetryPolicy replaces the throttling retry policy.
func WithRetryPolicy(policy backoff.RetryPolicy) Option {
	return func(o *options) {
		o.policy = policy
	}
}

// WithThrottleHook registers fn to be called every time a request is throttled.
func WithThrottleHook(fn func(op string)) Option {
	return func(o *options) {
		o.onThrottle = fn
	}
}

func newOptions(opts []Option) options {
	o := options{policy: backoff.NewExponentialBackoffPolicy(DefaultBackoffUnit)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// retryThrottled runs op until it succeeds or fails with anything other than
// ErrRateLimited.
func (o options) retryThrottled(ctx context.Context, op string, fn backoff.Operation) error {
	return backoff.Retry(ctx, func(ctx context.Context) error {
		err := fn(ctx)
		if errors.Is(err, ErrRateLimited) {
			logger.Debug(ctx, "Request throttled", "operation", op, tag.Error(err))
			if o.onThrottle != nil {
				o.onThrottle(op)
			}
		}
		return err
	}, o.policy, isRateLimited)
}

func isRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
