package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FriendRepository persiste amistades. Cada amistad se guarda en ambas
// direcciones para que las consultas por usuario sean simétricas.
type FriendRepository interface {
	Add(ctx context.Context, user, friend string) error
	List(ctx context.Context, user string) ([]string, error)
	Are(ctx context.Context, user, other string) (bool, error)
}

type PgFriendRepository struct {
	pool *pgxpool.Pool
}

func NewPgFriendRepository(pool *pgxpool.Pool) *PgFriendRepository {
	return &PgFriendRepository{pool: pool}
}

func (r *PgFriendRepository) Add(ctx context.Context, user, friend string) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `INSERT INTO friendships (user1, user2) VALUES ($1, $2)`
		if _, err := tx.Exec(ctx, query, user, friend); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, query, friend, user)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert friendship: %w", mapErr(err))
	}
	return nil
}

func (r *PgFriendRepository) List(ctx context.Context, user string) ([]string, error) {
	const query = `
		SELECT user2
		FROM friendships
		WHERE user1 = $1
		ORDER BY user2 ASC
	`
	rows, err := r.pool.Query(ctx, query, user)
	if err != nil {
		return nil, fmt.Errorf("query friends: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect friends: %w", err)
	}
	return names, nil
}

func (r *PgFriendRepository) Are(ctx context.Context, user, other string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM friendships WHERE user1 = $1 AND user2 = $2)`
	var ok bool
	if err := r.pool.QueryRow(ctx, query, user, other).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
