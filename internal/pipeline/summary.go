// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"io"
	"time"
)

// SeedState tracks one seed through the run.
type SeedState string

const (
	SeedPending        SeedState = "pending"
	SeedInvoked        SeedState = "invoked"
	SeedDatasetReady   SeedState = "dataset_ready"
	SeedDatasetMissing SeedState = "dataset_missing"
	SeedProducerFailed SeedState = "producer_failed"
	SeedDrained        SeedState = "drained"
)

// Counters only ever increase during a run.
type Counters struct {
	Seeds         int `yaml:"seeds"`
	SeedsFailed   int `yaml:"seeds_failed"`
	SeedsMissing  int `yaml:"seeds_missing"`
	Scanned       int `yaml:"scanned"`
	Dropped       int `yaml:"dropped"`
	Candidates    int `yaml:"candidates"`
	Rejected      int `yaml:"rejected"`
	Duplicates    int `yaml:"duplicates"`
	Saved         int `yaml:"saved"`
	SinkFailed    int `yaml:"sink_failed"`
	StoreCreated  int `yaml:"store_created"`
	StoreUpdated  int `yaml:"store_updated"`
	StoreExisting int `yaml:"store_existing"`
	StoreFailed   int `yaml:"store_failed"`
}

// Upserts returns the number of store rows written.
func (c Counters) Upserts() int {
	return c.StoreCreated + c.StoreUpdated
}

// SeedResult records what happened to one seed.
type SeedResult struct {
	Seed      string    `yaml:"seed"`
	State     SeedState `yaml:"state"`
	RunID     string    `yaml:"producer_run,omitempty"`
	DatasetID string    `yaml:"dataset,omitempty"`
	Records   int       `yaml:"records"`
	Error     string    `yaml:"error,omitempty"`
}

// Summary is the outcome of one Run.
type Summary struct {
	Counters `yaml:",inline"`

	RunID       string       `yaml:"run_id"`
	DryRun      bool         `yaml:"dry_run"`
	StartedAt   time.Time    `yaml:"started_at"`
	FinishedAt  time.Time    `yaml:"finished_at"`
	SeedResults []SeedResult `yaml:"seed_results"`
}

// HasFailures reports whether any seed, store call or sink append failed.
func (s Summary) HasFailures() bool {
	return s.SeedsFailed > 0 || s.StoreFailed > 0 || s.SinkFailed > 0
}

// FormatSummary writes a human-readable run summary to w.
func FormatSummary(s Summary, w io.Writer) {
	fmt.Fprintf(w, "\nRun %s", s.RunID)
	if s.DryRun {
		fmt.Fprint(w, " (dry run)")
	}
	fmt.Fprintf(w, " finished in %s\n", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))

	fmt.Fprintf(w, "%-40s  %-16s  %s\n", "SEED", "STATE", "RECORDS")
	for _, r := range s.SeedResults {
		fmt.Fprintf(w, "%-40s  %-16s  %d\n", truncate(r.Seed, 40), r.State, r.Records)
	}

	fmt.Fprintf(w, "\nseeds: %d (%d failed, %d without dataset)\n", s.Seeds, s.SeedsFailed, s.SeedsMissing)
	fmt.Fprintf(w, "records: %d scanned, %d dropped, %d rejected, %d candidates, %d duplicates\n",
		s.Scanned, s.Dropped, s.Rejected, s.Candidates, s.Duplicates)
	fmt.Fprintf(w, "saved: %d (%d sink failures)\n", s.Saved, s.SinkFailed)
	fmt.Fprintf(w, "store: %d created, %d updated, %d existing, %d failed\n",
		s.StoreCreated, s.StoreUpdated, s.StoreExisting, s.StoreFailed)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
