// Package execution models query executions of the query service and the
// two read paths the exporter needs: a paginated, newest-first listing of
// execution IDs and batched metadata lookups. Both retry on throttling.
package execution

import (
	"context"
	"errors"
	"time"
)

// MaxBatchSize is the largest number of IDs the service accepts in a single
// metadata lookup.
const MaxBatchSize = 50

var (
	// ErrRateLimited marks a transient throttling rejection. It is always
	// retried and never returned to callers of Lister or Batcher.
	ErrRateLimited = errors.New("rate limited")
	// ErrBatchTooLarge is returned by Batcher.Fetch for more than MaxBatchSize IDs.
	ErrBatchTooLarge = errors.New("batch exceeds maximum lookup size")
)

// Record is the metadata of one query execution. Document holds the full
// service representation and is written out verbatim apart from the
// normalized timestamps.
type Record struct {
	ID          string
	SubmittedAt time.Time
	CompletedAt *time.Time
	Document    map[string]any
}

// Page is one page of execution IDs, newest first. NextToken is empty on the
// last page.
type Page struct {
	IDs       []string
	NextToken string
}

// Service is the query service as seen by the exporter.
type Service interface {
	// ListPage returns the page identified by token; "" requests the first page.
	ListPage(ctx context.Context, token string) (Page, error)
	// GetExecutions returns metadata for at most MaxBatchSize IDs.
	GetExecutions(ctx context.Context, ids []string) ([]Record, error)
	// Region identifies where the service runs.
	Region() string
}
