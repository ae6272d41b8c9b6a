// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pdiddy/creator-sync/pkg/types"
)

const (
	defaultSchema = "public"
	defaultTable  = "creator_dataset"
)

// execer is the part of *pgxpool.Pool the sink uses.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Postgres inserts one row per item. Rows are never updated or deleted.
type Postgres struct {
	db     execer
	pool   *pgxpool.Pool
	insert string
}

// OpenPostgres connects to cfg.DSN and creates the table if it is missing.
func OpenPostgres(ctx context.Context, cfg types.SinkConfig) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres sink requires a dsn")
	}
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	pcfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	table := tableName(cfg.Schema, cfg.Table)
	if _, err := pool.Exec(ctx, createTableSQL(table)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating table %s: %w", table, err)
	}

	p := newPostgres(pool, table)
	p.pool = pool
	return p, nil
}

func newPostgres(db execer, table string) *Postgres {
	return &Postgres{db: db, insert: insertSQL(table)}
}

// PushData inserts item.
func (p *Postgres) PushData(ctx context.Context, item types.DatasetItem) error {
	if _, err := p.db.Exec(ctx, p.insert, insertArgs(item)...); err != nil {
		return fmt.Errorf("inserting %s: %w", item.Handle, err)
	}
	return nil
}

func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

// tableName returns the quoted, schema-qualified table identifier.
func tableName(schema, table string) string {
	if schema == "" {
		schema = defaultSchema
	}
	if table == "" {
		table = defaultTable
	}
	return pgx.Identifier{schema, table}.Sanitize()
}

var columns = []string{
	"run_id", "seed", "handle", "display_name", "follower_count",
	"bio", "profile_url", "email", "external_url", "region", "location",
	"language", "topics", "store_action", "store_record_id", "pushed_at",
}

func createTableSQL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + table + ` (
	id              BIGSERIAL PRIMARY KEY,
	run_id          TEXT NOT NULL,
	seed            TEXT NOT NULL,
	handle          TEXT NOT NULL,
	display_name    TEXT NOT NULL DEFAULT '',
	follower_count  BIGINT NOT NULL DEFAULT 0,
	bio             TEXT,
	profile_url     TEXT,
	email           TEXT,
	external_url    TEXT,
	region          TEXT,
	location        TEXT,
	language        TEXT,
	topics          TEXT[],
	store_action    TEXT,
	store_record_id TEXT,
	pushed_at       TIMESTAMPTZ NOT NULL
)`
}

func insertSQL(table string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return `INSERT INTO ` + table + ` (` + strings.Join(columns, ", ") +
		`) VALUES (` + strings.Join(placeholders, ", ") + `)`
}

// insertArgs follows the order of columns. Absent optional values become NULL.
func insertArgs(item types.DatasetItem) []any {
	return []any{
		item.RunID,
		item.Seed,
		item.Handle,
		item.DisplayName,
		item.FollowerCount,
		nullable(item.Bio),
		nullable(item.ProfileURL),
		nullable(item.Email),
		nullable(item.ExternalURL),
		nullable(item.Region),
		nullable(item.Location),
		nullable(item.Language),
		item.Topics,
		nullable(string(item.StoreAction)),
		nullable(item.StoreRecordID),
		item.PushedAt,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
