package blobvault

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// MemObjects is an in-memory ObjectClient implementation for tests and
// examples. It honors the create-if-absent contract without any network or
// filesystem dependency. Thread-safe for concurrent use.
type MemObjects struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ ObjectClient = (*MemObjects)(nil)

// NewMemObjects creates an empty in-memory object store.
func NewMemObjects() *MemObjects {
	return &MemObjects{
		objects: make(map[string][]byte),
	}
}

// Put stores the stream under name, failing with ErrExists if name is taken.
func (m *MemObjects) Put(_ context.Context, name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[name]; ok {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}
	m.objects[name] = data
	return nil
}

// Get returns a reader over a copy of the stored bytes.
func (m *MemObjects) Get(_ context.Context, name string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[name]
	if !ok {
		return nil, fmt.Errorf("object %q: %w", name, ErrNotFound)
	}

	// Copy to prevent external mutation.
	copied := make([]byte, len(data))
	copy(copied, data)
	return io.NopCloser(bytes.NewReader(copied)), nil
}

// Del removes name, reporting whether it existed.
func (m *MemObjects) Del(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.objects[name]
	delete(m.objects, name)
	return ok, nil
}

// Len reports the number of stored objects.
func (m *MemObjects) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
