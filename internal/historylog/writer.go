package historylog

import (
	"context"
	"errors"
	"fmt"

	"github.com/dagucloud/athenahistory/internal/common/logger"
	"github.com/dagucloud/athenahistory/internal/common/logger/tag"
	"github.com/dagucloud/athenahistory/internal/execution"
	"github.com/dagucloud/athenahistory/internal/objectstore"
)

// ErrEmptyBatch is returned when asked to write no records.
var ErrEmptyBatch = errors.New("no records to write")

// Writer stores serialized batches under a destination prefix.
type Writer struct {
	objects  objectstore.Store
	location objectstore.Location
	region   string
}

// NewWriter returns a Writer for the destination uri (scheme://bucket/prefix).
func NewWriter(objects objectstore.Store, uri, region string) (*Writer, error) {
	loc, err := objectstore.ParseURI(uri)
	if err != nil {
		return nil, err
	}
	return &Writer{objects: objects, location: loc, region: region}, nil
}

// Write stores records as one object and returns its key.
func (w *Writer) Write(ctx context.Context, records []execution.Record) (string, error) {
	if len(records) == 0 {
		return "", ErrEmptyBatch
	}

	data, err := Serialize(records, w.region)
	if err != nil {
		return "", err
	}

	key := Key(w.location.Key, w.region, records[0])
	if err := w.objects.Put(ctx, w.location.Bucket, key, data, objectstore.PutOptions{
		ContentType: "application/gzip",
	}); err != nil {
		return "", fmt.Errorf("failed to write history log: %w", err)
	}

	logger.Info(ctx, "History log written",
		tag.Bucket(w.location.Bucket),
		tag.Key(key),
		tag.Count(len(records)),
	)
	return key, nil
}
