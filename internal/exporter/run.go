package exporter

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dagucloud/athenahistory/internal/checkpoint"
	"github.com/dagucloud/athenahistory/internal/common/logger"
	"github.com/dagucloud/athenahistory/internal/common/logger/tag"
	"github.com/dagucloud/athenahistory/internal/execution"
)

// run holds the state of a single export. It is never shared between runs.
type run struct {
	exp     *Exporter
	lister  *execution.Lister
	batcher *execution.Batcher

	checkpoint *checkpoint.Checkpoint
	lastKnown  string

	pending []string
	records []execution.Record

	firstID         string
	foundCheckpoint bool
	// saved closes after the first checkpoint save that follows reaching
	// the previous checkpoint; later flushes in the run leave it alone.
	saved bool

	total int
	keys  []string
}

func (e *Exporter) newRun(ctx context.Context) (*run, error) {
	cp, err := e.checkpoints.Load(ctx)
	if err != nil {
		return nil, err
	}

	opts := append([]execution.Option{
		execution.WithThrottleHook(e.metrics.ObserveThrottle),
	}, e.executionOp...)

	r := &run{
		exp:        e,
		lister:     execution.NewLister(e.service, opts...),
		batcher:    execution.NewBatcher(e.service, opts...),
		checkpoint: cp,
		lastKnown:  cp.LastQueryExecutionID(),
		pending:    make([]string, 0, execution.MaxBatchSize),
	}
	if r.lastKnown != "" {
		logger.Info(ctx, "Resuming from checkpoint", tag.Checkpoint(r.lastKnown))
	}
	return r, nil
}

// scan consumes the listing until the previous checkpoint or the end.
func (r *run) scan(ctx context.Context) error {
	for r.lister.Next(ctx) {
		id := r.lister.ID()
		if r.lastKnown != "" && id == r.lastKnown {
			r.foundCheckpoint = true
			logger.Debug(ctx, "Reached previous checkpoint", tag.Checkpoint(id))
			return nil
		}
		if r.firstID == "" {
			r.firstID = id
		}

		r.pending = append(r.pending, id)
		if len(r.pending) < execution.MaxBatchSize {
			continue
		}
		if err := r.lookup(ctx); err != nil {
			return err
		}
		if len(r.records) >= r.exp.batchSize {
			if err := r.flush(ctx); err != nil {
				return err
			}
		}
	}
	return r.lister.Err()
}

// drain handles whatever the scan left behind.
func (r *run) drain(ctx context.Context) error {
	if len(r.pending) > 0 {
		if err := r.lookup(ctx); err != nil {
			return err
		}
	}
	if len(r.records) > 0 {
		return r.flush(ctx)
	}
	return nil
}

func (r *run) lookup(ctx context.Context) error {
	records, err := r.batcher.Fetch(ctx, r.pending)
	if err != nil {
		return err
	}
	r.records = append(r.records, records...)
	r.pending = r.pending[:0]
	return nil
}

// flush writes the collected records as one object, then saves the
// checkpoint unless the latch is closed.
func (r *run) flush(ctx context.Context) (err error) {
	ctx, span := r.exp.tracer.Start(ctx, "exporter.flush",
		trace.WithAttributes(attribute.Int("records", len(r.records))))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	key, err := r.exp.writer.Write(ctx, r.records)
	if err != nil {
		return err
	}
	r.keys = append(r.keys, key)
	r.total += len(r.records)
	r.exp.metrics.ObserveFlush(len(r.records))

	if err := r.saveCheckpoint(ctx); err != nil {
		return err
	}

	r.records = nil
	return nil
}

func (r *run) saveCheckpoint(ctx context.Context) error {
	if r.saved {
		logger.Debug(ctx, "Checkpoint already advanced in this run", tag.Checkpoint(r.firstID))
		return nil
	}

	next := r.checkpoint.WithLastQueryExecutionID(r.firstID)
	if err := r.exp.checkpoints.Save(ctx, next); err != nil {
		return err
	}
	r.checkpoint = next
	logger.Info(ctx, "Checkpoint saved", tag.Checkpoint(r.firstID))

	if r.foundCheckpoint {
		r.saved = true
	}
	return nil
}

func (r *run) result() Result {
	return Result{
		FirstID:         r.firstID,
		Records:         r.total,
		Objects:         len(r.keys),
		Keys:            r.keys,
		FoundCheckpoint: r.foundCheckpoint,
	}
}
