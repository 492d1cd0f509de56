package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spec    string
		wantErr bool
	}{
		{spec: "@hourly"},
		{spec: "@every 5m"},
		{spec: "15 * * * *"},
		{spec: "0 */6 * * 1-5"},
		{spec: "* * * * * *", wantErr: true},
		{spec: "not a schedule", wantErr: true},
		{spec: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			_, err := Parse(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestScheduler_Next(t *testing.T) {
	t.Parallel()

	s, err := New("15 * * * *", func(context.Context) error { return nil })
	require.NoError(t, err)

	base := time.Date(2018, 12, 11, 10, 9, 8, 0, time.UTC)
	assert.Equal(t, time.Date(2018, 12, 11, 10, 15, 0, 0, time.UTC), s.Next(base))
}

func TestNew_InvalidSpec(t *testing.T) {
	t.Parallel()

	_, err := New("61 * * * *", func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestScheduler_Start(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	s, err := New("@every 1s", func(context.Context) error {
		calls.Add(1)
		return errors.New("failures do not stop the schedule")
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()

	require.NoError(t, s.Start(ctx))
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	t.Parallel()

	var active, maxActive, calls atomic.Int32
	s, err := New("@every 1s", func(ctx context.Context) error {
		calls.Add(1)
		n := active.Add(1)
		defer active.Add(-1)
		if n > maxActive.Load() {
			maxActive.Store(n)
		}
		select {
		case <-time.After(1500 * time.Millisecond):
		case <-ctx.Done():
		}
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 3500*time.Millisecond)
	defer cancel()

	require.NoError(t, s.Start(ctx))
	assert.Equal(t, int32(1), maxActive.Load())
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestScheduler_CancelLetsRunFinish(t *testing.T) {
	t.Parallel()

	started := make(chan struct{}, 1)
	ctxErr := make(chan error, 1)
	s, err := New("@every 1s", func(ctx context.Context) error {
		started <- struct{}{}
		time.Sleep(300 * time.Millisecond)
		ctxErr <- ctx.Err()
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not start")
	}
	cancel()
	require.NoError(t, <-done)

	select {
	case err := <-ctxErr:
		assert.NoError(t, err, "the running job must not see the cancellation")
	default:
		t.Fatal("Start returned before the running job finished")
	}
}

func TestScheduler_AlreadyRunning(t *testing.T) {
	t.Parallel()

	s, err := New("@hourly", func(context.Context) error { return nil })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return s.running.Load() }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyRunning)

	cancel()
	assert.NoError(t, <-done)
}
