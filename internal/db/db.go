package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect открывает пул соединений и проверяет доступность базы
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id           BIGSERIAL PRIMARY KEY,
	lobby_id     TEXT        NOT NULL,
	winner_id    TEXT        NOT NULL,
	winner_name  TEXT        NOT NULL,
	reason       TEXT        NOT NULL,
	solution     JSONB       NOT NULL,
	players      JSONB       NOT NULL,
	suggestions  INTEGER     NOT NULL DEFAULT 0,
	accusations  INTEGER     NOT NULL DEFAULT 0,
	started_at   TIMESTAMPTZ NOT NULL,
	finished_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS games_lobby_id_idx ON games (lobby_id);

CREATE TABLE IF NOT EXISTS game_events (
	id          BIGSERIAL PRIMARY KEY,
	lobby_id    TEXT        NOT NULL,
	player_id   TEXT        NOT NULL DEFAULT '',
	action      TEXT        NOT NULL,
	details     JSONB       NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS game_events_lobby_id_idx ON game_events (lobby_id, created_at);
`

// EnsureSchema создает таблицы истории, если их нет
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
