// Package exporter copies newly finished query executions into the history
// log and advances the checkpoint.
package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dagucloud/athenahistory/internal/checkpoint"
	"github.com/dagucloud/athenahistory/internal/common/logger"
	"github.com/dagucloud/athenahistory/internal/common/logger/tag"
	"github.com/dagucloud/athenahistory/internal/execution"
)

// DefaultBatchSize is the number of records collected before a log object
// is written.
const DefaultBatchSize = 10000

// CheckpointStore loads and saves the export watermark.
type CheckpointStore interface {
	Load(ctx context.Context) (*checkpoint.Checkpoint, error)
	Save(ctx context.Context, cp *checkpoint.Checkpoint) error
}

// LogWriter writes one history log object and returns its key.
type LogWriter interface {
	Write(ctx context.Context, records []execution.Record) (string, error)
}

// Metrics receives run observations.
type Metrics interface {
	ObserveFlush(records int)
	ObserveThrottle(operation string)
	ObserveRun(elapsed time.Duration, err error)
}

// Result summarizes a run.
type Result struct {
	// FirstID is the newest execution processed, empty when there was
	// nothing new.
	FirstID string
	Records int
	Objects int
	Keys    []string
	// FoundCheckpoint reports whether the scan reached the previous checkpoint.
	FoundCheckpoint bool
}

// Exporter runs incremental exports. Runs must not overlap.
type Exporter struct {
	service     execution.Service
	checkpoints CheckpointStore
	writer      LogWriter

	batchSize   int
	metrics     Metrics
	tracer      trace.Tracer
	executionOp []execution.Option
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithBatchSize sets how many records go into one log object. Values below
// one select DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithMetrics reports run observations to m.
func WithMetrics(m Metrics) Option {
	return func(e *Exporter) {
		e.metrics = m
	}
}

// WithTracer records spans with t.
func WithTracer(t trace.Tracer) Option {
	return func(e *Exporter) {
		e.tracer = t
	}
}

// WithExecutionOptions passes opts to the lister and batcher of every run.
func WithExecutionOptions(opts ...execution.Option) Option {
	return func(e *Exporter) {
		e.executionOp = append(e.executionOp, opts...)
	}
}

// New creates an Exporter.
func New(service execution.Service, checkpoints CheckpointStore, writer LogWriter, opts ...Option) *Exporter {
	e := &Exporter{
		service:     service,
		checkpoints: checkpoints,
		writer:      writer,
		batchSize:   DefaultBatchSize,
		metrics:     nopMetrics{},
		tracer:      otel.Tracer("github.com/dagucloud/athenahistory/internal/exporter"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SaveHistory runs one export and returns the newest execution ID
// processed, or "" when nothing new was found.
func (e *Exporter) SaveHistory(ctx context.Context) (string, error) {
	res, err := e.Run(ctx)
	if err != nil {
		return "", err
	}
	return res.FirstID, nil
}

// Run performs one export. On failure, objects written before the failure
// remain in place and the checkpoint reflects only completed flushes.
func (e *Exporter) Run(ctx context.Context) (res Result, err error) {
	runID, err := uuid.NewV7()
	if err != nil {
		return Result{}, fmt.Errorf("failed to generate run id: %w", err)
	}
	ctx = logger.WithLogger(ctx, logger.FromContext(ctx).With(tag.RunID(runID.String())))

	ctx, span := e.tracer.Start(ctx, "exporter.Run", trace.WithAttributes(
		attribute.String("run.id", runID.String()),
		attribute.String("region", e.service.Region()),
	))
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		e.metrics.ObserveRun(elapsed, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(
				attribute.Int("records", res.Records),
				attribute.Int("objects", res.Objects),
			)
		}
		span.End()
	}()

	logger.Info(ctx, "Export started", tag.Region(e.service.Region()))

	r, err := e.newRun(ctx)
	if err != nil {
		return Result{}, err
	}
	if err := r.scan(ctx); err != nil {
		return r.result(), err
	}
	if err := r.drain(ctx); err != nil {
		return r.result(), err
	}

	res = r.result()
	if res.FirstID == "" {
		logger.Info(ctx, "No new query executions", tag.Duration(time.Since(start)))
	} else {
		logger.Info(ctx, "Export finished",
			tag.ExecutionID(res.FirstID),
			tag.Count(res.Records),
			slog.Int("objects", res.Objects),
			tag.Duration(time.Since(start)),
		)
	}
	return res, nil
}

type nopMetrics struct{}

func (nopMetrics) ObserveFlush(int)                {}
func (nopMetrics) ObserveThrottle(string)          {}
func (nopMetrics) ObserveRun(time.Duration, error) {}
