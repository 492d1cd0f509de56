package objectstore

import (
	"context"
	"errors"
)

var _ Store = (*DryRun)(nil)

// DryRun reads through to a backing store but keeps every write in memory,
// so a run can be previewed without modifying remote state.
type DryRun struct {
	backing Store
	*Memory
}

// NewDryRun wraps backing.
func NewDryRun(backing Store) *DryRun {
	return &DryRun{backing: backing, Memory: NewMemory()}
}

// Get returns objects written during the dry run first, then falls back to
// the backing store.
func (d *DryRun) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	data, err := d.Memory.Get(ctx, bucket, key)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return d.backing.Get(ctx, bucket, key)
}
