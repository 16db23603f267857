package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"term-chat/internal/config"
)

// NewPool construye y devuelve un pool de conexiones configurado.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// Un solo usuario activo: el poll y el loop de entrada como mucho.
	poolCfg.MaxConns = 4
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.ConnConfig.ConnectTimeout = 5 * time.Second

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Ping verifica conectividad con la base de datos.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	return pool.Ping(ctx)
}

var pgMigrations = []string{
	`
CREATE TABLE IF NOT EXISTS users (
  id            BIGSERIAL PRIMARY KEY,
  username      TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  created_at    TIMESTAMP(0) NOT NULL DEFAULT LOCALTIMESTAMP(0)
);
`,
	`
CREATE TABLE IF NOT EXISTS friendships (
  user1      TEXT NOT NULL,
  user2      TEXT NOT NULL,
  created_at TIMESTAMP(0) NOT NULL DEFAULT LOCALTIMESTAMP(0),
  PRIMARY KEY (user1, user2)
);
`,
	`
CREATE TABLE IF NOT EXISTS chat_groups (
  name       TEXT PRIMARY KEY,
  creator    TEXT NOT NULL,
  created_at TIMESTAMP(0) NOT NULL DEFAULT LOCALTIMESTAMP(0)
);
`,
	`
CREATE TABLE IF NOT EXISTS group_members (
  group_name TEXT NOT NULL REFERENCES chat_groups(name) ON DELETE CASCADE,
  username   TEXT NOT NULL,
  joined_at  TIMESTAMP(0) NOT NULL DEFAULT LOCALTIMESTAMP(0),
  PRIMARY KEY (group_name, username)
);
`,
	`
CREATE TABLE IF NOT EXISTS messages (
  id         BIGSERIAL PRIMARY KEY,
  sender     TEXT NOT NULL,
  receiver   TEXT NOT NULL,
  content    TEXT NOT NULL,
  created_at TIMESTAMP(0) NOT NULL DEFAULT LOCALTIMESTAMP(0),
  is_group   BOOLEAN NOT NULL DEFAULT FALSE
);
`,
	`
CREATE INDEX IF NOT EXISTS idx_messages_direct
ON messages (sender, receiver, is_group, created_at);
`,
	`
CREATE INDEX IF NOT EXISTS idx_messages_group
ON messages (receiver, is_group, created_at);
`,
	`
CREATE TABLE IF NOT EXISTS system_config (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`,
}

// Migrate aplica las migraciones pendientes en orden dentro de una transacción.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var version int
	if err := pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version >= len(pgMigrations) {
		return nil
	}

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for i := version; i < len(pgMigrations); i++ {
			if _, err := tx.Exec(ctx, pgMigrations[i]); err != nil {
				return fmt.Errorf("apply migration %d: %w", i+1, err)
			}
			if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, i+1); err != nil {
				return fmt.Errorf("set schema version %d: %w", i+1, err)
			}
		}
		return nil
	})
}
