// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the sync: every seed is handed to the producer, and
// every record it returns is normalized, filtered, deduplicated against the
// ledger, upserted into the external store and appended to the sink.
//
// Failures are isolated as narrowly as possible. A producer failure skips its
// seed, a store failure skips the store step for its record, and a sink
// failure leaves its handle unclaimed so a later run picks it up again. Only
// an authentication failure from the store aborts the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/creator-sync/internal/airtable"
	"github.com/pdiddy/creator-sync/internal/filter"
	"github.com/pdiddy/creator-sync/internal/ledger"
	"github.com/pdiddy/creator-sync/internal/normalize"
	"github.com/pdiddy/creator-sync/internal/producer"
	"github.com/pdiddy/creator-sync/internal/sink"
	"github.com/pdiddy/creator-sync/pkg/types"
)

const (
	// DefaultRunTimeout bounds one seed's producer run.
	DefaultRunTimeout = 10 * time.Minute

	persistTimeout = 30 * time.Second
)

// Orchestrator owns the ledger for the duration of a run.
type Orchestrator struct {
	producer producer.Producer
	ledger   *ledger.Ledger
	store    RecordStore
	sink     sink.Sink
	cfg      types.Config
	log      *zap.Logger
	now      func() time.Time
}

// New wires a run. store may be nil, which disables store sync. A nil logger
// discards output.
func New(p producer.Producer, l *ledger.Ledger, store RecordStore, s sink.Sink, cfg types.Config, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		producer: p,
		ledger:   l,
		store:    store,
		sink:     s,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// Run processes every configured seed in order. The ledger is persisted
// before Run returns, even when ctx is cancelled or the run aborts. The
// returned Summary is populated in every case.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	seeds := types.BuildSeeds(o.cfg.Seeds.Terms, o.cfg.Seeds.Hashtags)
	sum := Summary{
		RunID:     uuid.NewString(),
		DryRun:    o.cfg.Run.DryRun,
		StartedAt: o.now(),
	}
	sum.Seeds = len(seeds)
	for _, s := range seeds {
		sum.SeedResults = append(sum.SeedResults, SeedResult{Seed: s.String(), State: SeedPending})
	}

	log := o.log.With(zap.String("run_id", sum.RunID))
	log.Info("pipeline: run started",
		zap.Int("seeds", len(seeds)),
		zap.Bool("dry_run", o.cfg.Run.DryRun),
		zap.Bool("store_sync", o.store != nil),
		zap.Int("ledger_size", o.ledger.Len()),
	)

	var runErr error
	for i, seed := range seeds {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if err := o.runSeed(ctx, seed, &sum, &sum.SeedResults[i], log); err != nil {
			runErr = err
			break
		}
	}

	// Persist even when ctx is already cancelled so accepted handles are
	// never lost.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := o.ledger.Persist(persistCtx); err != nil {
		log.Error("pipeline: failed to persist ledger", zap.Error(err))
		runErr = errors.Join(runErr, fmt.Errorf("persisting ledger: %w", err))
	}

	sum.FinishedAt = o.now()
	log.Info("pipeline: run finished",
		zap.Int("scanned", sum.Scanned),
		zap.Int("candidates", sum.Candidates),
		zap.Int("saved", sum.Saved),
		zap.Int("upserts", sum.Upserts()),
		zap.Int("seeds_failed", sum.SeedsFailed),
		zap.Error(runErr),
	)
	return sum, runErr
}

// runSeed drives one seed from Pending to Drained. It returns an error only
// when the whole run must stop.
func (o *Orchestrator) runSeed(ctx context.Context, seed types.Seed, sum *Summary, res *SeedResult, log *zap.Logger) error {
	log = log.With(zap.String("seed", seed.String()))

	timeout := o.cfg.Producer.RunTimeout
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	seedCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res.State = SeedInvoked
	run, err := o.producer.Invoke(seedCtx, seed, o.cfg.Seeds.MaxItems)
	if run != nil {
		res.RunID = run.ID
	}
	if err != nil {
		o.seedFailed(sum, res, log, "invoke", err)
		return nil
	}
	if run == nil || run.DatasetID == "" {
		res.State = SeedDatasetMissing
		sum.SeedsMissing++
		log.Warn("pipeline: producer returned no dataset, skipping seed", zap.String("producer_run", res.RunID))
		return nil
	}

	res.State = SeedDatasetReady
	res.DatasetID = run.DatasetID
	items, err := o.producer.Items(seedCtx, run.DatasetID, o.cfg.Seeds.MaxItems)
	if err != nil {
		o.seedFailed(sum, res, log, "items", err)
		return nil
	}
	res.Records = len(items)
	log.Info("pipeline: dataset ready", zap.String("dataset", run.DatasetID), zap.Int("records", len(items)))

	for _, raw := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.processRecord(ctx, seed, raw, sum, log); err != nil {
			return err
		}
	}
	res.State = SeedDrained
	return nil
}

func (o *Orchestrator) seedFailed(sum *Summary, res *SeedResult, log *zap.Logger, step string, err error) {
	res.State = SeedProducerFailed
	res.Error = err.Error()
	sum.SeedsFailed++
	log.Warn("pipeline: producer failed, skipping seed", zap.String("step", step), zap.Error(err))
}

// processRecord runs one raw record through every stage. It returns an error
// only for an authentication failure from the store.
func (o *Orchestrator) processRecord(ctx context.Context, seed types.Seed, raw types.RawRecord, sum *Summary, log *zap.Logger) error {
	sum.Scanned++

	p := normalize.Normalize(raw)
	if !p.HasIdentity() {
		sum.Dropped++
		log.Debug("pipeline: dropped record without handle")
		return nil
	}
	log = log.With(zap.String("handle", p.Handle))

	if v := filter.Evaluate(p, o.cfg.Filter); !v.Pass {
		sum.Rejected++
		log.Debug("pipeline: rejected", zap.String("reason", string(v.Reason)), zap.Int64("followers", p.FollowerCount))
		return nil
	}
	sum.Candidates++

	if !o.ledger.CheckAndMark(p.Handle) {
		sum.Duplicates++
		log.Debug("pipeline: already seen")
		return nil
	}

	res := o.sync(ctx, p)
	switch res.Action {
	case types.ActionCreated:
		sum.StoreCreated++
	case types.ActionUpdated:
		sum.StoreUpdated++
	case types.ActionExisting:
		sum.StoreExisting++
	case types.ActionFailed:
		sum.StoreFailed++
		if airtable.IsAuth(res.Err) {
			o.ledger.Forget(p.Handle)
			log.Error("pipeline: store rejected credentials, aborting run", zap.Error(res.Err))
			return fmt.Errorf("store sync: %w", res.Err)
		}
		log.Warn("pipeline: store sync failed, keeping profile", zap.Error(res.Err))
	}

	item := types.DatasetItem{
		Profile:     p,
		RunID:       sum.RunID,
		Seed:        seed.String(),
		StoreAction: res.Action,
		PushedAt:    o.now().UTC(),
	}
	if res.Record != nil {
		item.StoreRecordID = res.Record.ID
	}
	if err := o.sink.PushData(ctx, item); err != nil {
		sum.SinkFailed++
		o.ledger.Forget(p.Handle)
		log.Warn("pipeline: sink append failed, handle left unclaimed", zap.Error(err))
		return nil
	}
	sum.Saved++
	log.Info("pipeline: saved",
		zap.Int64("followers", p.FollowerCount),
		zap.String("store_action", string(res.Action)),
	)

	if every := o.cfg.Ledger.PersistEvery; every > 0 && sum.Saved%every == 0 {
		if err := o.ledger.Persist(ctx); err != nil {
			log.Warn("pipeline: incremental ledger persist failed", zap.Error(err))
		}
	}
	return nil
}

// sync runs the store step unless it is disabled or suppressed by dry run.
func (o *Orchestrator) sync(ctx context.Context, p types.Profile) SyncResult {
	if o.cfg.Run.DryRun {
		return SyncResult{Action: types.ActionSkipped}
	}
	if o.store == nil {
		return SyncResult{Action: types.ActionNone}
	}
	return upsert(ctx, o.store, p, o.cfg.Store.Upsert, o.now())
}
