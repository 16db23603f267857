package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SystemConfigRepository guarda pares clave/valor de configuración del sistema.
type SystemConfigRepository interface {
	Get(ctx context.Context, key string) (string, error)
	// SetIfAbsent no pisa un valor existente.
	SetIfAbsent(ctx context.Context, key, value string) error
}

type PgSystemConfigRepository struct {
	pool *pgxpool.Pool
}

func NewPgSystemConfigRepository(pool *pgxpool.Pool) *PgSystemConfigRepository {
	return &PgSystemConfigRepository{pool: pool}
}

func (r *PgSystemConfigRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	if err := r.pool.QueryRow(ctx, `SELECT value FROM system_config WHERE key = $1`, key).Scan(&value); err != nil {
		return "", mapErr(err)
	}
	return value, nil
}

func (r *PgSystemConfigRepository) SetIfAbsent(ctx context.Context, key, value string) error {
	const query = `
		INSERT INTO system_config (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("insert system config %s: %w", key, err)
	}
	return nil
}

type SqliteSystemConfigRepository struct {
	db *sql.DB
}

func NewSqliteSystemConfigRepository(db *sql.DB) *SqliteSystemConfigRepository {
	return &SqliteSystemConfigRepository{db: db}
}

func (r *SqliteSystemConfigRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	if err := r.db.QueryRowContext(ctx, `SELECT value FROM system_config WHERE key = ?`, key).Scan(&value); err != nil {
		return "", mapErr(err)
	}
	return value, nil
}

func (r *SqliteSystemConfigRepository) SetIfAbsent(ctx context.Context, key, value string) error {
	const query = `INSERT OR IGNORE INTO system_config (key, value) VALUES (?, ?)`
	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("insert system config %s: %w", key, err)
	}
	return nil
}
