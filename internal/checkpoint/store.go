// Package checkpoint persists the export watermark: the ID of the newest
// query execution already written to the history log.
package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dagucloud/athenahistory/internal/common/logger"
	"github.com/dagucloud/athenahistory/internal/common/logger/tag"
	"github.com/dagucloud/athenahistory/internal/objectstore"
)

// Store loads and saves the checkpoint document at a single object location.
type Store struct {
	objects  objectstore.Store
	location objectstore.Location
	enabled  bool
}

// NewStore returns a store for uri. An empty uri disables checkpointing:
// Load always yields an empty checkpoint and Save does nothing.
func NewStore(objects objectstore.Store, uri string) (*Store, error) {
	if uri == "" {
		return &Store{}, nil
	}
	loc, err := objectstore.ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if loc.Key == "" {
		return nil, fmt.Errorf("%w: %q: checkpoint uri needs an object key", objectstore.ErrInvalidURI, uri)
	}
	return &Store{objects: objects, location: loc, enabled: true}, nil
}

// Enabled reports whether a checkpoint location is configured.
func (s *Store) Enabled() bool {
	return s.enabled
}

// Load reads the checkpoint. A missing object is not an error.
func (s *Store) Load(ctx context.Context) (*Checkpoint, error) {
	if !s.enabled {
		return New(), nil
	}

	data, err := s.objects.Get(ctx, s.location.Bucket, s.location.Key)
	if errors.Is(err, objectstore.ErrNotFound) {
		logger.Warn(ctx, "Checkpoint not found; exporting full history", tag.URI(s.location.String()))
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	cp := New()
	if err := json.Unmarshal(data, cp); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint %s: %w", s.location, err)
	}
	return cp, nil
}

// Save overwrites the checkpoint object with cp.
func (s *Store) Save(ctx context.Context, cp *Checkpoint) error {
	if !s.enabled {
		return nil
	}

	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := s.objects.Put(ctx, s.location.Bucket, s.location.Key, data, objectstore.PutOptions{
		ContentType: "application/json",
	}); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	logger.Debug(ctx, "Checkpoint saved", tag.Checkpoint(cp.LastQueryExecutionID()), tag.URI(s.location.String()))
	return nil
}
