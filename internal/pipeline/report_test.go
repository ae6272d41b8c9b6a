// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/creator-sync/pkg/types"
)

func sampleSummary() Summary {
	start := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	s := Summary{
		RunID:      "3f0c9a52-0000-4000-8000-000000000000",
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		SeedResults: []SeedResult{
			{Seed: "term:coupon codes", State: SeedDrained, RunID: "r1", DatasetID: "d1", Records: 3},
			{Seed: "hashtag:deals", State: SeedProducerFailed, Error: "producer invoke: HTTP 502"},
		},
	}
	s.Seeds = 2
	s.SeedsFailed = 1
	s.Scanned = 3
	s.Dropped = 1
	s.Rejected = 1
	s.Candidates = 1
	s.Saved = 1
	s.StoreCreated = 1
	return s
}

func TestWriteAndReadReport(t *testing.T) {
	cfg := types.Config{
		Seeds:  types.SeedConfig{Terms: []string{"coupon codes"}, Hashtags: []string{"deals"}, MaxItems: 50},
		Filter: types.FilterConfig{MinFollowers: 1000, MaxFollowers: 100000},
		Store:  types.StoreConfig{Enabled: true, Upsert: true, Token: "pat_secret"},
		Ledger: types.LedgerConfig{Backend: types.KVSQLite},
		Sink:   types.SinkConfig{Backend: types.SinkJSONL},
	}
	path := filepath.Join(t.TempDir(), "reports", "run.yaml")

	require.NoError(t, WriteReport(path, NewReport(cfg, sampleSummary(), errors.New("store sync: auth"))))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "pat_secret")
	assert.Contains(t, string(data), "seeds_failed: 1")

	got, err := ReadReport(path)
	require.NoError(t, err)
	assert.Equal(t, sampleSummary(), got.Summary)
	assert.Equal(t, []string{"coupon codes"}, got.Config.Terms)
	assert.Equal(t, "sqlite", got.Config.LedgerBackend)
	assert.True(t, got.Config.StoreSync)
	assert.Equal(t, "store sync: auth", got.Error)
}

func TestReadReportMissing(t *testing.T) {
	_, err := ReadReport(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading run report")
}

func TestFormatSummary(t *testing.T) {
	var buf bytes.Buffer
	FormatSummary(sampleSummary(), &buf)
	out := buf.String()

	assert.Contains(t, out, "finished in 1.5s")
	assert.Contains(t, out, "term:coupon codes")
	assert.Contains(t, out, "producer_failed")
	assert.Contains(t, out, "records: 3 scanned, 1 dropped, 1 rejected, 1 candidates, 0 duplicates")
	assert.Contains(t, out, "store: 1 created, 0 updated, 0 existing, 0 failed")
}
