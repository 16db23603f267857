package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"term-chat/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, username, passwordHash string) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	Exists(ctx context.Context, username string) (bool, error)
	// DeleteCascade borra el usuario junto con sus amistades, membresías y
	// mensajes enviados o recibidos, todo en una transacción.
	DeleteCascade(ctx context.Context, username string) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) Create(ctx context.Context, username, passwordHash string) (domain.User, error) {
	const query = `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, username, password_hash, created_at
	`
	u, err := scanPgUser(r.pool.QueryRow(ctx, query, username, passwordHash))
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", mapErr(err))
	}
	return u, nil
}

func (r *PgUserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	const query = `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = $1
	`
	u, err := scanPgUser(r.pool.QueryRow(ctx, query, username))
	if err != nil {
		return domain.User{}, mapErr(err)
	}
	return u, nil
}

func (r *PgUserRepository) Exists(ctx context.Context, username string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, username).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgUserRepository) DeleteCascade(ctx context.Context, username string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE username = $1`, username)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		for _, stmt := range []string{
			`DELETE FROM friendships WHERE user1 = $1 OR user2 = $1`,
			`DELETE FROM group_members WHERE username = $1`,
			`DELETE FROM messages WHERE sender = $1 OR receiver = $1`,
		} {
			if _, err := tx.Exec(ctx, stmt, username); err != nil {
				return fmt.Errorf("delete user data: %w", err)
			}
		}
		return nil
	})
}

func scanPgUser(row rowScanner) (domain.User, error) {
	var (
		u         domain.User
		createdAt time.Time
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt); err != nil {
		return domain.User{}, err
	}
	u.CreatedAt = domain.FormatTimestamp(createdAt)
	return u, nil
}
