// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/creator-sync/pkg/types"
)

// Report is the on-disk record of one run: the settings that shaped it and
// what happened. Secrets are never written.
type Report struct {
	Config  ReportConfig `yaml:"config"`
	Summary Summary      `yaml:"summary"`
	Error   string       `yaml:"error,omitempty"`
}

// ReportConfig stores the settings that produced the run.
type ReportConfig struct {
	Terms                []string `yaml:"terms,omitempty"`
	Hashtags             []string `yaml:"hashtags,omitempty"`
	MaxItems             int      `yaml:"max_items"`
	MinFollowers         int64    `yaml:"min_followers"`
	MaxFollowers         int64    `yaml:"max_followers"`
	RequireTargetCountry bool     `yaml:"require_target_country"`
	StoreSync            bool     `yaml:"store_sync"`
	Upsert               bool     `yaml:"upsert"`
	Actor                string   `yaml:"actor,omitempty"`
	LedgerBackend        string   `yaml:"ledger_backend"`
	SinkBackend          string   `yaml:"sink_backend"`
}

// NewReport assembles a report. runErr may be nil.
func NewReport(cfg types.Config, sum Summary, runErr error) Report {
	r := Report{
		Config: ReportConfig{
			Terms:                cfg.Seeds.Terms,
			Hashtags:             cfg.Seeds.Hashtags,
			MaxItems:             cfg.Seeds.MaxItems,
			MinFollowers:         cfg.Filter.MinFollowers,
			MaxFollowers:         cfg.Filter.MaxFollowers,
			RequireTargetCountry: cfg.Filter.RequireTargetCountry,
			StoreSync:            cfg.Store.Enabled,
			Upsert:               cfg.Store.Upsert,
			Actor:                cfg.Producer.Actor,
			LedgerBackend:        string(cfg.Ledger.Backend),
			SinkBackend:          string(cfg.Sink.Backend),
		},
		Summary: sum,
	}
	if runErr != nil {
		r.Error = runErr.Error()
	}
	return r
}

// WriteReport saves r as YAML, creating the parent directory if needed.
func WriteReport(path string, r Report) error {
	data, err := yaml.Marshal(&r)
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadReport loads a previously written report.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run report: %w", err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing run report: %w", err)
	}
	return &r, nil
}
