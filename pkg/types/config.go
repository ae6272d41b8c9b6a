package types

import "time"

// HTTPConfig holds shared HTTP settings used by clients that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "creator-sync/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SeedConfig lists the inputs that drive producer invocations.
type SeedConfig struct {
	// Terms are free-text search seeds.
	Terms []string `json:"terms" yaml:"terms" mapstructure:"terms"`

	// Hashtags are hashtag seeds; a leading '#' is optional.
	Hashtags []string `json:"hashtags" yaml:"hashtags" mapstructure:"hashtags"`

	// MaxItems caps the records requested from and pulled for each seed.
	MaxItems int `json:"max_items" yaml:"max_items" mapstructure:"max_items"`
}

// FilterConfig holds the membership criteria.
type FilterConfig struct {
	// MinFollowers is the inclusive lower bound of the follower band.
	MinFollowers int64 `json:"min_followers" yaml:"min_followers" mapstructure:"min_followers"`

	// MaxFollowers is the inclusive upper bound; 0 or less means unbounded.
	MaxFollowers int64 `json:"max_followers" yaml:"max_followers" mapstructure:"max_followers"`

	// RequireTargetCountry gates profiles on the geography classifier.
	RequireTargetCountry bool `json:"require_target_country" yaml:"require_target_country" mapstructure:"require_target_country"`
}

// KVBackend selects the durable blob store implementation.
type KVBackend string

const (
	KVSQLite KVBackend = "sqlite"
	KVRedis  KVBackend = "redis"
	KVS3     KVBackend = "s3"
	KVMemory KVBackend = "memory"
)

// LedgerConfig locates the durable dedupe ledger.
type LedgerConfig struct {
	Backend KVBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// StoreName namespaces keys inside the backend.
	StoreName string `json:"store_name" yaml:"store_name" mapstructure:"store_name"`

	// Key is the blob key that holds the serialized ledger.
	Key string `json:"key" yaml:"key" mapstructure:"key"`

	// Path is the SQLite database file for the sqlite backend.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	RedisAddr     string `json:"redis_addr" yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty" mapstructure:"redis_password"`
	RedisDB       int    `json:"redis_db" yaml:"redis_db" mapstructure:"redis_db"`

	S3Bucket   string `json:"s3_bucket" yaml:"s3_bucket" mapstructure:"s3_bucket"`
	S3Region   string `json:"s3_region" yaml:"s3_region" mapstructure:"s3_region"`
	S3Endpoint string `json:"s3_endpoint,omitempty" yaml:"s3_endpoint,omitempty" mapstructure:"s3_endpoint"`

	// PersistEvery persists the ledger after this many newly accepted
	// profiles. 0 persists only at the end of the run.
	PersistEvery int `json:"persist_every" yaml:"persist_every" mapstructure:"persist_every"`
}

// StoreConfig configures the external tabular store sync.
type StoreConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// BaseURL is the API root (default https://api.airtable.com/v0).
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// BaseID identifies the store's base (app...).
	BaseID string `json:"base_id" yaml:"base_id" mapstructure:"base_id"`

	// Table is the table name or id.
	Table string `json:"table" yaml:"table" mapstructure:"table"`

	// UniqueField is the column holding the handle (default "Handle").
	UniqueField string `json:"unique_field" yaml:"unique_field" mapstructure:"unique_field"`

	// Upsert updates existing rows. When false the sync is check-only:
	// existing rows are left untouched and only missing rows are created.
	Upsert bool `json:"upsert" yaml:"upsert" mapstructure:"upsert"`

	// Token is the bearer token. Usually supplied from .secrets/ or the environment.
	Token string `json:"token,omitempty" yaml:"token,omitempty" mapstructure:"token"`

	// Interval is the minimum spacing between store calls (default 200ms).
	Interval time.Duration `json:"interval" yaml:"interval" mapstructure:"interval"`

	// MaxRetries caps retries on HTTP 429 responses.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// HasCredentials reports whether the store can be addressed at all.
func (c StoreConfig) HasCredentials() bool {
	return c.Token != "" && c.BaseID != "" && c.Table != ""
}

// ProducerConfig configures the scraping-job client.
type ProducerConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the actor platform API root.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Actor identifies the scraping job to run.
	Actor string `json:"actor" yaml:"actor" mapstructure:"actor"`

	Token string `json:"token,omitempty" yaml:"token,omitempty" mapstructure:"token"`

	// RunTimeout bounds the wait for one seed's run to finish.
	RunTimeout time.Duration `json:"run_timeout" yaml:"run_timeout" mapstructure:"run_timeout"`

	// TermField, HashtagField and LimitField name the actor input keys that
	// receive the seed payload and the item cap.
	TermField    string `json:"term_field" yaml:"term_field" mapstructure:"term_field"`
	HashtagField string `json:"hashtag_field" yaml:"hashtag_field" mapstructure:"hashtag_field"`
	LimitField   string `json:"limit_field" yaml:"limit_field" mapstructure:"limit_field"`

	// ExtraOptions are merged into every actor input.
	ExtraOptions map[string]any `json:"extra_options,omitempty" yaml:"extra_options,omitempty" mapstructure:"extra_options"`
}

// SinkBackend selects the append-log implementation.
type SinkBackend string

const (
	SinkJSONL    SinkBackend = "jsonl"
	SinkPostgres SinkBackend = "postgres"
	SinkMemory   SinkBackend = "memory"
)

// SinkConfig configures where saved profiles are appended.
type SinkConfig struct {
	Backend SinkBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Path is the JSON Lines file for the jsonl backend.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	DSN    string `json:"dsn,omitempty" yaml:"dsn,omitempty" mapstructure:"dsn"`
	Schema string `json:"schema" yaml:"schema" mapstructure:"schema"`
	Table  string `json:"table" yaml:"table" mapstructure:"table"`
}

// RunConfig holds per-invocation switches.
type RunConfig struct {
	// DryRun suppresses every call to the external store. Filtering,
	// dedupe and the sink still run.
	DryRun bool `json:"dry_run" yaml:"dry_run" mapstructure:"dry_run"`

	// Report is an optional path for the YAML run report.
	Report string `json:"report,omitempty" yaml:"report,omitempty" mapstructure:"report"`
}

// Config groups all settings for a sync run.
type Config struct {
	Seeds    SeedConfig     `json:"seeds" yaml:"seeds" mapstructure:"seeds"`
	Filter   FilterConfig   `json:"filter" yaml:"filter" mapstructure:"filter"`
	Ledger   LedgerConfig   `json:"ledger" yaml:"ledger" mapstructure:"ledger"`
	Store    StoreConfig    `json:"store" yaml:"store" mapstructure:"store"`
	Producer ProducerConfig `json:"producer" yaml:"producer" mapstructure:"producer"`
	Sink     SinkConfig     `json:"sink" yaml:"sink" mapstructure:"sink"`
	Run      RunConfig      `json:"run" yaml:"run" mapstructure:"run"`
}
