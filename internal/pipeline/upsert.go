// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/creator-sync/internal/airtable"
	"github.com/pdiddy/creator-sync/pkg/types"
)

// RecordStore is the external table the pipeline syncs profiles into.
// *airtable.Client satisfies it.
type RecordStore interface {
	FindByHandle(ctx context.Context, handle string) (*airtable.Record, error)
	CreateRecord(ctx context.Context, fields map[string]any) (*airtable.Record, error)
	UpdateRecord(ctx context.Context, id string, fields map[string]any) (*airtable.Record, error)
	UniqueField() string
}

// SyncResult is the outcome of syncing one profile.
type SyncResult struct {
	Action types.StoreAction
	Record *airtable.Record
	Err    error
}

// upsert finds p by handle, then updates the row (or leaves it alone when
// update is false) or creates it. Find and write are separate calls, so two
// concurrent writers could both create; the pipeline runs a single flow.
func upsert(ctx context.Context, store RecordStore, p types.Profile, update bool, now time.Time) SyncResult {
	existing, err := store.FindByHandle(ctx, p.Handle)
	if err != nil {
		return SyncResult{Action: types.ActionFailed, Err: fmt.Errorf("finding %s: %w", p.Handle, err)}
	}

	fields := airtable.Fields(p, store.UniqueField(), now)
	if existing != nil {
		if !update {
			return SyncResult{Action: types.ActionExisting, Record: existing}
		}
		rec, err := store.UpdateRecord(ctx, existing.ID, fields)
		if err != nil {
			return SyncResult{Action: types.ActionFailed, Record: existing, Err: fmt.Errorf("updating %s: %w", p.Handle, err)}
		}
		return SyncResult{Action: types.ActionUpdated, Record: rec}
	}

	rec, err := store.CreateRecord(ctx, fields)
	if err != nil {
		return SyncResult{Action: types.ActionFailed, Err: fmt.Errorf("creating %s: %w", p.Handle, err)}
	}
	return SyncResult{Action: types.ActionCreated, Record: rec}
}
