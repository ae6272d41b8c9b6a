// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package kvstore is the durable get/set blob store behind the dedupe
// ledger. A store is addressed by a store name, which namespaces every key,
// so several ledgers can share one backend.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pdiddy/creator-sync/pkg/types"
)

// ErrNotFound is returned by GetValue when the key has never been set.
var ErrNotFound = errors.New("kvstore: key not found")

// Store reads and writes opaque values by key.
type Store interface {
	GetValue(ctx context.Context, key string) ([]byte, error)
	SetValue(ctx context.Context, key string, value []byte) error
	Close() error
}

const defaultStoreName = "creator-sync"

// Open returns the backend selected by cfg.Backend. An empty backend selects SQLite.
func Open(ctx context.Context, cfg types.LedgerConfig) (Store, error) {
	name := cfg.StoreName
	if name == "" {
		name = defaultStoreName
	}
	switch cfg.Backend {
	case types.KVSQLite, "":
		return OpenSQLite(cfg.Path, name)
	case types.KVRedis:
		return OpenRedis(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, name)
	case types.KVS3:
		return OpenS3(ctx, S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		}, name)
	case types.KVMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported ledger backend %q: use sqlite, redis, s3 or memory", cfg.Backend)
	}
}

// Memory is an in-process Store. Values do not survive the process.
type Memory struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

// GetValue returns a copy of the stored value.
func (m *Memory) GetValue(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// SetValue stores a copy of value.
func (m *Memory) SetValue(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
