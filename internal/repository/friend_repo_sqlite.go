package repository

import (
	"context"
	"database/sql"
	"fmt"
)

type SqliteFriendRepository struct {
	db *sql.DB
}

func NewSqliteFriendRepository(db *sql.DB) *SqliteFriendRepository {
	return &SqliteFriendRepository{db: db}
}

func (r *SqliteFriendRepository) Add(ctx context.Context, user, friend string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin friendship transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const query = `INSERT INTO friendships (user1, user2) VALUES (?, ?)`
	if _, err := tx.ExecContext(ctx, query, user, friend); err != nil {
		return fmt.Errorf("insert friendship: %w", mapErr(err))
	}
	if _, err := tx.ExecContext(ctx, query, friend, user); err != nil {
		return fmt.Errorf("insert friendship: %w", mapErr(err))
	}
	return tx.Commit()
}

func (r *SqliteFriendRepository) List(ctx context.Context, user string) ([]string, error) {
	const query = `
		SELECT user2
		FROM friendships
		WHERE user1 = ?
		ORDER BY user2 ASC
	`
	return queryNames(ctx, r.db, query, user)
}

func (r *SqliteFriendRepository) Are(ctx context.Context, user, other string) (bool, error) {
	var ok int
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM friendships WHERE user1 = ? AND user2 = ?)`,
		user, other,
	).Scan(&ok)
	if err != nil {
		return false, err
	}
	return ok == 1, nil
}

// queryNames lee una única columna de texto.
func queryNames(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query names: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate names: %w", err)
	}
	return names, nil
}
