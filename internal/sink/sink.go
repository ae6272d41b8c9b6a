// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sink is the append-only log every saved profile is pushed to. A
// sink never deduplicates; uniqueness is the ledger's job.
package sink

import (
	"context"
	"fmt"
	"sync"

	"github.com/pdiddy/creator-sync/pkg/types"
)

// Sink appends dataset items.
type Sink interface {
	PushData(ctx context.Context, item types.DatasetItem) error
	Close() error
}

// Open returns the backend selected by cfg.Backend. An empty backend selects JSON Lines.
func Open(ctx context.Context, cfg types.SinkConfig) (Sink, error) {
	switch cfg.Backend {
	case types.SinkJSONL, "":
		return OpenJSONL(cfg.Path)
	case types.SinkPostgres:
		return OpenPostgres(ctx, cfg)
	case types.SinkMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported sink backend %q: use jsonl, postgres or memory", cfg.Backend)
	}
}

// Memory keeps items in process. Useful for tests and dry runs.
type Memory struct {
	mu    sync.Mutex
	items []types.DatasetItem
}

// NewMemory returns an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

// PushData appends item.
func (m *Memory) PushData(_ context.Context, item types.DatasetItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, item)
	return nil
}

// Items returns a copy of everything pushed so far.
func (m *Memory) Items() []types.DatasetItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.DatasetItem(nil), m.items...)
}

func (m *Memory) Close() error { return nil }
