// Package scheduler triggers export runs on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dagucloud/athenahistory/internal/common/logger"
	"github.com/dagucloud/athenahistory/internal/common/logger/tag"
)

// ErrAlreadyRunning is returned by Start when the scheduler is already running.
var ErrAlreadyRunning = errors.New("scheduler already running")

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

var parser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Parse validates a five-field cron expression or descriptor such as
// @hourly or @every 15m.
func Parse(spec string) (cron.Schedule, error) {
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return schedule, nil
}

// Scheduler invokes a Job on a schedule. A tick that arrives while the
// previous invocation is still running is skipped.
type Scheduler struct {
	spec     string
	schedule cron.Schedule
	job      Job
	location *time.Location
	running  atomic.Bool
}

// New creates a Scheduler for spec, evaluated in UTC.
func New(spec string, job Job) (*Scheduler, error) {
	schedule, err := Parse(spec)
	if err != nil {
		return nil, err
	}
	return &Scheduler{spec: spec, schedule: schedule, job: job, location: time.UTC}, nil
}

// Next returns the first activation after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.location))
}

// Start runs the schedule until ctx is cancelled, then waits for an
// in-flight job to return. Cancelling ctx stops new activations only: jobs
// run with a context that keeps ctx's values but is never cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	cl := cronLogger{ctx: ctx}
	c := cron.New(
		cron.WithLocation(s.location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	c.Schedule(s.schedule, cron.FuncJob(func() {
		s.invoke(ctx)
	}))

	c.Start()
	logger.Info(ctx, "Scheduler started",
		tag.Schedule(s.spec),
		"next", s.Next(time.Now()).Format(time.RFC3339),
	)

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info(ctx, "Scheduler stopped")
	return nil
}

func (s *Scheduler) invoke(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := s.job(context.WithoutCancel(ctx)); err != nil {
		logger.Error(ctx, "Scheduled run failed", tag.Duration(time.Since(start)), tag.Error(err))
		return
	}
	logger.Debug(ctx, "Scheduled run completed", tag.Duration(time.Since(start)))
}

// cronLogger adapts the context logger to cron.Logger.
type cronLogger struct {
	ctx context.Context
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	logger.Debug(l.ctx, msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logger.Error(l.ctx, msg, append(keysAndValues, tag.Error(err))...)
}
