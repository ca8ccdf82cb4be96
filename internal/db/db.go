// Package db provides the PostgreSQL connection pool and schema bootstrap.
package db

import (
	"context"
	"fmt"

	"github.com/eslym/dcyt-bot-v2/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect creates and verifies a pgx connection pool from the configuration.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConnections
	poolConfig.MinConns = cfg.MinConnections
	poolConfig.MaxConnIdleTime = cfg.MaxIdleTime
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Migrate applies the schema. All statements are idempotent so the bootstrap
// can run on every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS guilds (
		id            TEXT PRIMARY KEY,
		language      TEXT,
		publish_text    TEXT,
		schedule_text   TEXT,
		reschedule_text TEXT,
		upcoming_text   TEXT,
		live_text       TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS guild_channels (
		id            TEXT PRIMARY KEY,
		guild_id      TEXT NOT NULL REFERENCES guilds(id) ON DELETE CASCADE ON UPDATE CASCADE,
		publish_text    TEXT,
		schedule_text   TEXT,
		reschedule_text TEXT,
		upcoming_text   TEXT,
		live_text       TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS youtube_channels (
		id                 TEXT PRIMARY KEY,
		title              TEXT NOT NULL DEFAULT '',
		webhook_id         TEXT NOT NULL UNIQUE,
		webhook_secret     TEXT,
		webhook_expires_at TIMESTAMPTZ,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS youtube_videos (
		id                     TEXT PRIMARY KEY,
		channel_id             TEXT NOT NULL REFERENCES youtube_channels(id) ON DELETE CASCADE ON UPDATE CASCADE,
		type                   TEXT NOT NULL,
		title                  TEXT NOT NULL,
		scheduled_at           TIMESTAMPTZ,
		lived_at               TIMESTAMPTZ,
		deleted_at             TIMESTAMPTZ,
		publish_notified_at    TIMESTAMPTZ,
		schedule_notified_at   TIMESTAMPTZ,
		reschedule_notified_at TIMESTAMPTZ,
		upcoming_notified_at   TIMESTAMPTZ,
		live_notified_at       TIMESTAMPTZ,
		created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at             TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS youtube_videos_pending_idx
		ON youtube_videos (type)
		WHERE live_notified_at IS NULL AND upcoming_notified_at IS NULL AND deleted_at IS NULL`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		youtube_channel_id TEXT NOT NULL REFERENCES youtube_channels(id) ON DELETE CASCADE ON UPDATE CASCADE,
		guild_channel_id   TEXT NOT NULL REFERENCES guild_channels(id) ON DELETE CASCADE ON UPDATE CASCADE,
		notify_publish     BOOLEAN NOT NULL DEFAULT true,
		notify_schedule    BOOLEAN NOT NULL DEFAULT true,
		notify_reschedule  BOOLEAN NOT NULL DEFAULT true,
		notify_upcoming    BOOLEAN NOT NULL DEFAULT true,
		notify_live        BOOLEAN NOT NULL DEFAULT true,
		publish_text    TEXT,
		schedule_text   TEXT,
		reschedule_text TEXT,
		upcoming_text   TEXT,
		live_text       TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (youtube_channel_id, guild_channel_id)
	)`,
}
