package backoff

import (
	"errors"
	"math"
	"time"
)

// ErrRetriesExhausted is returned when the maximum number of retries has been reached.
var ErrRetriesExhausted = errors.New("retries exhausted")

type (
	// RetryPolicy defines the interface for retry policies.
	RetryPolicy interface {
		// ComputeNextInterval returns the duration to wait before the next
		// retry, or an error if no more retries should be attempted.
		ComputeNextInterval(retryCount int, elapsedTime time.Duration, err error) (time.Duration, error)
	}

	// Retrier tracks the state of a single logical operation being retried.
	Retrier interface {
		// Next computes the next retry interval and advances the retry count.
		Next(err error) (time.Duration, error)
		// Reset returns the retrier to its initial state.
		Reset()
	}
)

const noMaximumAttempts = 0

var (
	defaultBackoffFactor = 2.0
	defaultMaxInterval   = 16 * time.Second
)

// NewExponentialBackoffPolicy creates an unbounded exponential policy that
// doubles from initialInterval up to 16 times initialInterval.
func NewExponentialBackoffPolicy(initialInterval time.Duration) *ExponentialBackoffPolicy {
	maxInterval := defaultMaxInterval
	if initialInterval > 0 {
		maxInterval = 16 * initialInterval
	}
	return &ExponentialBackoffPolicy{
		InitialInterval: initialInterval,
		BackoffFactor:   defaultBackoffFactor,
		MaxInterval:     maxInterval,
		MaxRetries:      noMaximumAttempts,
	}
}

// ExponentialBackoffPolicy waits InitialInterval * BackoffFactor^retryCount,
// capped at MaxInterval.
type ExponentialBackoffPolicy struct {
	InitialInterval time.Duration
	BackoffFactor   float64
	MaxInterval     time.Duration
	// MaxRetries is the maximum number of retries allowed. 0 means unlimited retries.
	MaxRetries int
}

// ComputeNextInterval implements RetryPolicy.
func (p *ExponentialBackoffPolicy) ComputeNextInterval(retryCount int, _ time.Duration, _ error) (time.Duration, error) {
	if p.MaxRetries > 0 && retryCount >= p.MaxRetries {
		return 0, ErrRetriesExhausted
	}

	interval := float64(p.InitialInterval) * math.Pow(p.BackoffFactor, float64(retryCount))
	if interval > float64(p.MaxInterval) {
		interval = float64(p.MaxInterval)
	}

	return time.Duration(interval), nil
}

// ConstantBackoffPolicy waits the same interval between every retry.
type ConstantBackoffPolicy struct {
	Interval time.Duration
	// MaxRetries is the maximum number of retries allowed. 0 means unlimited retries.
	MaxRetries int
}

// NewConstantBackoffPolicy creates a new ConstantBackoffPolicy with the specified interval.
func NewConstantBackoffPolicy(interval time.Duration) *ConstantBackoffPolicy {
	return &ConstantBackoffPolicy{
		Interval:   interval,
		MaxRetries: noMaximumAttempts,
	}
}

// ComputeNextInterval implements RetryPolicy.
func (p *ConstantBackoffPolicy) ComputeNextInterval(retryCount int, _ time.Duration, _ error) (time.Duration, error) {
	if p.MaxRetries > 0 && retryCount >= p.MaxRetries {
		return 0, ErrRetriesExhausted
	}
	return p.Interval, nil
}

// NewRetrier creates a new Retrier for the given policy.
func NewRetrier(policy RetryPolicy) Retrier {
	return &retrier{policy: policy}
}

// retrier is owned by a single call to Retry and is not safe for concurrent use.
type retrier struct {
	policy     RetryPolicy
	retryCount int
	startTime  time.Time
}

func (r *retrier) Next(err error) (time.Duration, error) {
	if r.startTime.IsZero() {
		r.startTime = time.Now()
	}

	interval, computeErr := r.policy.ComputeNextInterval(r.retryCount, time.Since(r.startTime), err)
	if computeErr != nil {
		return 0, computeErr
	}

	r.retryCount++
	return interval, nil
}

func (r *retrier) Reset() {
	r.retryCount = 0
	r.startTime = time.Time{}
}
