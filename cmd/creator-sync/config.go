package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/creator-sync/internal/airtable"
	"github.com/pdiddy/creator-sync/internal/ledger"
	"github.com/pdiddy/creator-sync/internal/pipeline"
	"github.com/pdiddy/creator-sync/internal/producer"
	"github.com/pdiddy/creator-sync/pkg/types"
)

const defaultUserAgent = "creator-sync/0.1"

// setDefaults registers every key so environment variables can override
// values that appear in no config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("seeds.terms", []string{})
	v.SetDefault("seeds.hashtags", []string{})
	v.SetDefault("seeds.max_items", 50)

	v.SetDefault("filter.min_followers", 1000)
	v.SetDefault("filter.max_followers", 100000)
	v.SetDefault("filter.require_target_country", false)

	v.SetDefault("ledger.backend", string(types.KVSQLite))
	v.SetDefault("ledger.store_name", "creator-sync")
	v.SetDefault("ledger.key", ledger.DefaultKey)
	v.SetDefault("ledger.path", "state/kvstore.db")
	v.SetDefault("ledger.redis_addr", "localhost:6379")
	v.SetDefault("ledger.redis_password", "")
	v.SetDefault("ledger.redis_db", 0)
	v.SetDefault("ledger.s3_bucket", "")
	v.SetDefault("ledger.s3_region", "")
	v.SetDefault("ledger.s3_endpoint", "")
	v.SetDefault("ledger.persist_every", 25)

	v.SetDefault("store.enabled", true)
	v.SetDefault("store.base_url", airtable.DefaultBaseURL)
	v.SetDefault("store.base_id", "")
	v.SetDefault("store.table", "Creators")
	v.SetDefault("store.unique_field", airtable.DefaultUniqueField)
	v.SetDefault("store.upsert", true)
	v.SetDefault("store.token", "")
	v.SetDefault("store.interval", airtable.DefaultInterval)
	v.SetDefault("store.max_retries", 3)
	v.SetDefault("store.timeout", 30*time.Second)
	v.SetDefault("store.user_agent", defaultUserAgent)

	v.SetDefault("producer.base_url", producer.DefaultBaseURL)
	v.SetDefault("producer.actor", producer.DefaultActor)
	v.SetDefault("producer.token", "")
	v.SetDefault("producer.timeout", 90*time.Second)
	v.SetDefault("producer.user_agent", defaultUserAgent)
	v.SetDefault("producer.run_timeout", pipeline.DefaultRunTimeout)
	v.SetDefault("producer.term_field", producer.DefaultTermField)
	v.SetDefault("producer.hashtag_field", producer.DefaultHashtagField)
	v.SetDefault("producer.limit_field", producer.DefaultLimitField)

	v.SetDefault("sink.backend", string(types.SinkJSONL))
	v.SetDefault("sink.path", "state/dataset.jsonl")
	v.SetDefault("sink.dsn", "")
	v.SetDefault("sink.schema", "public")
	v.SetDefault("sink.table", "creator_dataset")

	v.SetDefault("run.dry_run", false)
	v.SetDefault("run.report", "")
}

// loadConfig decodes the merged configuration and fills tokens from secrets
// when they are not configured directly.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	if path := v.ConfigFileUsed(); path != "" && len(cfg.Producer.ExtraOptions) > 0 {
		opts, err := extraOptions(path)
		if err != nil {
			return cfg, err
		}
		if opts != nil {
			cfg.Producer.ExtraOptions = opts
		}
	}
	if cfg.Store.Token == "" {
		cfg.Store.Token = loadedSecrets.Get("store-token", "airtable-token")
	}
	if cfg.Producer.Token == "" {
		cfg.Producer.Token = loadedSecrets.Get("producer-token", "apify-token")
	}
	return cfg, nil
}

// extraOptions re-reads producer.extra_options from a YAML config file.
// Viper folds map keys to lower case but actor input keys are
// case-sensitive. Other file types return nil.
func extraOptions(path string) (map[string]any, error) {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
	default:
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var doc struct {
		Producer struct {
			ExtraOptions map[string]any `yaml:"extra_options"`
		} `yaml:"producer"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing producer.extra_options: %w", err)
	}
	return doc.Producer.ExtraOptions, nil
}

// missingStoreSettings lists what store sync needs but does not have.
func missingStoreSettings(c types.StoreConfig) []string {
	var missing []string
	if c.Token == "" {
		missing = append(missing, "store.token")
	}
	if c.BaseID == "" {
		missing = append(missing, "store.base_id")
	}
	if c.Table == "" {
		missing = append(missing, "store.table")
	}
	return missing
}

// resolveStoreSync turns store sync off, with a warning, when it is enabled
// but cannot be addressed.
func resolveStoreSync(cfg *types.Config, log *zap.Logger) {
	if !cfg.Store.Enabled || cfg.Store.HasCredentials() {
		return
	}
	cfg.Store.Enabled = false
	log.Warn("store sync disabled: missing settings",
		zap.Strings("missing", missingStoreSettings(cfg.Store)),
	)
}
