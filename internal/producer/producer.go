// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package producer runs the external scraping job once per seed and pulls
// the raw records it produced.
package producer

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/creator-sync/pkg/types"
)

// Run describes one producer invocation. DatasetID is empty when the job
// finished without producing a dataset.
type Run struct {
	ID        string `json:"id" yaml:"id"`
	Status    string `json:"status" yaml:"status"`
	DatasetID string `json:"dataset_id" yaml:"dataset_id"`
}

// Producer is the scraping-job collaborator.
type Producer interface {
	// Invoke submits seed and blocks until the job reaches a terminal state
	// or ctx expires.
	Invoke(ctx context.Context, seed types.Seed, maxItems int) (*Run, error)

	// Items returns at most limit records from the dataset. A limit of 0
	// or less returns all of them.
	Items(ctx context.Context, datasetID string, limit int) ([]types.RawRecord, error)
}

// Error reports a failed invocation or item pull. It is scoped to one seed.
type Error struct {
	Op         string
	Seed       string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := "producer " + e.Op
	if e.Seed != "" {
		msg += " " + e.Seed
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": HTTP %d", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsError reports whether err came from a producer.
func IsError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
