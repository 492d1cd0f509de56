package execution

import (
	"context"
	"fmt"
)

// Batcher fetches execution metadata in service-sized lookups.
type Batcher struct {
	service Service
	opts    options
}

// NewBatcher creates a Batcher.
func NewBatcher(service Service, opts ...Option) *Batcher {
	return &Batcher{service: service, opts: newOptions(opts)}
}

// Fetch returns metadata for ids, which must hold at most MaxBatchSize IDs.
// Records come back in the order the service returns them, which normally
// follows ids.
func (b *Batcher) Fetch(ctx context.Context, ids []string) ([]Record, error) {
	if len(ids) > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d ids, limit %d", ErrBatchTooLarge, len(ids), MaxBatchSize)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var records []Record
	err := b.opts.retryThrottled(ctx, OpLookup, func(ctx context.Context) error {
		var err error
		records, err = b.service.GetExecutions(ctx, ids)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get query executions: %w", err)
	}
	return records, nil
}
