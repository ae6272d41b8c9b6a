// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger tracks which profile handles have already been emitted,
// across runs. The ledger is loaded once from a kvstore.Store, mutated in
// memory and written back as a JSON object of handle -> true. Entries never
// expire.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pdiddy/creator-sync/internal/kvstore"
)

// DefaultKey is the blob key used when none is configured.
const DefaultKey = "seen-handles"

// Ledger is the set of handles already emitted. Handles are compared
// case-insensitively, matching the external store's lookup.
type Ledger struct {
	mu    sync.Mutex
	store kvstore.Store
	key   string
	seen  map[string]bool
	dirty int
}

// Load reads the ledger stored under key. A missing key yields an empty ledger.
func Load(ctx context.Context, store kvstore.Store, key string) (*Ledger, error) {
	if key == "" {
		key = DefaultKey
	}
	l := &Ledger{store: store, key: key, seen: make(map[string]bool)}

	data, err := store.GetValue(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading ledger %q: %w", key, err)
	}
	if len(data) == 0 {
		return l, nil
	}

	var stored map[string]bool
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("parsing ledger %q: %w", key, err)
	}
	for h, present := range stored {
		if present {
			l.seen[normalizeKey(h)] = true
		}
	}
	return l, nil
}

// Has reports whether handle has been marked seen.
func (l *Ledger) Has(handle string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seen[normalizeKey(handle)]
}

// MarkSeen records handle and reports whether it was new. Marking a handle
// that is already present is a no-op.
func (l *Ledger) MarkSeen(handle string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.markLocked(handle)
}

// CheckAndMark is Has followed by MarkSeen under one lock: of two callers
// racing on the same handle, exactly one gets true.
func (l *Ledger) CheckAndMark(handle string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.markLocked(handle)
}

func (l *Ledger) markLocked(handle string) bool {
	k := normalizeKey(handle)
	if k == "" || l.seen[k] {
		return false
	}
	l.seen[k] = true
	l.dirty++
	return true
}

// Forget removes handle so a later run may emit it again.
func (l *Ledger) Forget(handle string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := normalizeKey(handle)
	if !l.seen[k] {
		return false
	}
	delete(l.seen, k)
	l.dirty++
	return true
}

// Len returns the number of handles in the ledger.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}

// Dirty returns the number of changes since the last Persist.
func (l *Ledger) Dirty() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirty
}

// Handles returns the handles in sorted order.
func (l *Ledger) Handles() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.seen))
	for h := range l.seen {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// Persist writes the full ledger back to the store.
func (l *Ledger) Persist(ctx context.Context) error {
	l.mu.Lock()
	data, err := json.Marshal(l.seen)
	dirty := l.dirty
	l.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}

	if err := l.store.SetValue(ctx, l.key, data); err != nil {
		return fmt.Errorf("persisting ledger %q: %w", l.key, err)
	}

	l.mu.Lock()
	l.dirty -= dirty
	l.mu.Unlock()
	return nil
}

func normalizeKey(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}
