package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetry(t *testing.T) {
	t.Run("SuccessfulRetry", func(t *testing.T) {
		attempts := 0
		op := func(_ context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("temporary error")
			}
			return nil
		}

		err := Retry(context.Background(), op, NewConstantBackoffPolicy(time.Millisecond), nil)

		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("NonRetriableError", func(t *testing.T) {
		permanentErr := errors.New("permanent error")
		attempts := 0
		op := func(_ context.Context) error {
			attempts++
			return permanentErr
		}
		isRetriable := func(err error) bool { return !errors.Is(err, permanentErr) }

		err := Retry(context.Background(), op, NewConstantBackoffPolicy(time.Millisecond), isRetriable)

		assert.Equal(t, permanentErr, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("RetriableThenPermanent", func(t *testing.T) {
		throttled := errors.New("throttled")
		permanentErr := errors.New("access denied")
		attempts := 0
		op := func(_ context.Context) error {
			attempts++
			if attempts == 1 {
				return throttled
			}
			return permanentErr
		}
		isRetriable := func(err error) bool { return errors.Is(err, throttled) }

		err := Retry(context.Background(), op, NewExponentialBackoffPolicy(time.Millisecond), isRetriable)

		assert.Equal(t, permanentErr, err)
		assert.Equal(t, 2, attempts)
	})

	t.Run("ContextCancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		op := func(_ context.Context) error {
			called = true
			return nil
		}

		err := Retry(ctx, op, NewConstantBackoffPolicy(time.Millisecond), nil)

		assert.Equal(t, context.Canceled, err)
		assert.False(t, called)
	})

	t.Run("ContextCancellationDuringWait", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		attempts := 0
		op := func(_ context.Context) error {
			attempts++
			if attempts == 1 {
				go func() {
					time.Sleep(20 * time.Millisecond)
					cancel()
				}()
			}
			return errors.New("error")
		}

		start := time.Now()
		err := Retry(ctx, op, NewConstantBackoffPolicy(time.Second), nil)

		assert.Equal(t, context.Canceled, err)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("RetriesExhausted", func(t *testing.T) {
		attempts := 0
		testErr := errors.New("test error")
		op := func(_ context.Context) error {
			attempts++
			return testErr
		}

		policy := NewConstantBackoffPolicy(time.Millisecond)
		policy.MaxRetries = 3
		err := Retry(context.Background(), op, policy, nil)

		assert.Equal(t, testErr, err)
		assert.Equal(t, 4, attempts)
	})

	t.Run("AttemptCounterResetPerCall", func(t *testing.T) {
		policy := &recordingPolicy{}
		throttled := errors.New("throttled")

		for range 2 {
			attempts := 0
			op := func(_ context.Context) error {
				attempts++
				if attempts < 3 {
					return throttled
				}
				return nil
			}

			assert.NoError(t, Retry(context.Background(), op, policy, nil))
		}

		assert.Equal(t, []int{0, 1, 0, 1}, policy.retryCounts)
	})
}

type recordingPolicy struct {
	retryCounts []int
}

func (p *recordingPolicy) ComputeNextInterval(retryCount int, _ time.Duration, _ error) (time.Duration, error) {
	p.retryCounts = append(p.retryCounts, retryCount)
	return time.Millisecond, nil
}
