package objectstore

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

var _ Store = (*Memory)(nil)

// Object is a stored object body and its metadata.
type Object struct {
	Data []byte
	PutOptions
}

// Memory is an in-process Store. It backs dry runs and tests.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]Object)}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, bucket, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[memoryKey(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, key)
	}
	return slices.Clone(obj.Data), nil
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, bucket, key string, data []byte, opts PutOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[memoryKey(bucket, key)] = Object{Data: slices.Clone(data), PutOptions: opts}
	return nil
}

// Object returns the stored object at bucket/key.
func (m *Memory) Object(bucket, key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[memoryKey(bucket, key)]
	return obj, ok
}

// Keys returns every stored bucket/key path in sorted order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func memoryKey(bucket, key string) string {
	return bucket + "/" + key
}
