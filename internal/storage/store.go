// Package storage provides the opaque key-value store that holds the
// persisted session and ledger blobs. Backends are single-writer: two
// processes sharing one backend silently overwrite each other.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Store is a string key-value store.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Memory is an in-process Store. Its contents die with the process.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Blob is a JSON value of type T kept under a single key.
type Blob[T any] struct {
	store Store
	key   string
}

func NewBlob[T any](store Store, key string) *Blob[T] {
	return &Blob[T]{store: store, key: key}
}

// Load retrieves and unmarshals the value. A miss or an undecodable value
// returns (nil, false, nil) so callers fall back to their defaults. A failed
// read returns the error: the value may exist and must not be overwritten.
func (b *Blob[T]) Load(ctx context.Context) (*T, bool, error) {
	data, ok, err := b.store.Get(ctx, b.key)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", b.key, err)
	}
	if !ok {
		return nil, false, nil
	}
	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		slog.Warn("blob decode failed, treating as absent", "key", b.key, "err", err)
		return nil, false, nil
	}
	return &v, true, nil
}

// Save marshals value and stores it under the key.
func (b *Blob[T]) Save(ctx context.Context, value *T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", b.key, err)
	}
	return b.store.Set(ctx, b.key, string(data))
}

func (b *Blob[T]) Remove(ctx context.Context) error {
	return b.store.Remove(ctx, b.key)
}
