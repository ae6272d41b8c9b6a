// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pdiddy/creator-sync/pkg/types"
)

const defaultJSONLPath = "state/dataset.jsonl"

// JSONL appends one JSON object per line to a file.
type JSONL struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// OpenJSONL opens path for appending, creating it and its directory if needed.
func OpenJSONL(path string) (*JSONL, error) {
	if path == "" {
		path = defaultJSONLPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating sink directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening sink %s: %w", path, err)
	}
	return &JSONL{path: path, f: f}, nil
}

// Path returns the file being appended to.
func (j *JSONL) Path() string { return j.path }

// PushData writes item as a single line.
func (j *JSONL) PushData(_ context.Context, item types.DatasetItem) error {
	line, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", item.Handle, err)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.f.Write(line); err != nil {
		return fmt.Errorf("writing %s: %w", j.path, err)
	}
	return nil
}

func (j *JSONL) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.f.Close()
}
