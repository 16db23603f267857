package repository

import (
	"context"
	"database/sql"
	"fmt"

	"term-chat/internal/domain"
)

type SqliteGroupRepository struct {
	db *sql.DB
}

func NewSqliteGroupRepository(db *sql.DB) *SqliteGroupRepository {
	return &SqliteGroupRepository{db: db}
}

func (r *SqliteGroupRepository) Create(ctx context.Context, name, creator string) (domain.Group, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Group{}, fmt.Errorf("begin group transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var g domain.Group
	err = tx.QueryRowContext(ctx,
		`INSERT INTO chat_groups (name, creator) VALUES (?, ?) RETURNING name, creator, created_at`,
		name, creator,
	).Scan(&g.Name, &g.Creator, &g.CreatedAt)
	if err != nil {
		return domain.Group{}, fmt.Errorf("insert group: %w", mapErr(err))
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO group_members (group_name, username) VALUES (?, ?)`, name, creator); err != nil {
		return domain.Group{}, fmt.Errorf("insert group creator: %w", mapErr(err))
	}
	if err := tx.Commit(); err != nil {
		return domain.Group{}, fmt.Errorf("commit group transaction: %w", err)
	}
	return g, nil
}

func (r *SqliteGroupRepository) Get(ctx context.Context, name string) (domain.Group, error) {
	var g domain.Group
	err := r.db.QueryRowContext(ctx,
		`SELECT name, creator, created_at FROM chat_groups WHERE name = ?`, name,
	).Scan(&g.Name, &g.Creator, &g.CreatedAt)
	if err != nil {
		return domain.Group{}, mapErr(err)
	}
	return g, nil
}

func (r *SqliteGroupRepository) AddMember(ctx context.Context, group, username string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO group_members (group_name, username) VALUES (?, ?)`, group, username)
	if err != nil {
		return fmt.Errorf("insert group member: %w", mapErr(err))
	}
	return nil
}

func (r *SqliteGroupRepository) RemoveMember(ctx context.Context, group, username string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM group_members WHERE group_name = ? AND username = ?`, group, username)
	if err != nil {
		return fmt.Errorf("delete group member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete group member: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SqliteGroupRepository) ListForUser(ctx context.Context, username string) ([]string, error) {
	const query = `
		SELECT group_name
		FROM group_members
		WHERE username = ?
		ORDER BY group_name ASC
	`
	return queryNames(ctx, r.db, query, username)
}

func (r *SqliteGroupRepository) Members(ctx context.Context, group string) ([]string, error) {
	const query = `
		SELECT username
		FROM group_members
		WHERE group_name = ?
		ORDER BY joined_at ASC, username ASC
	`
	return queryNames(ctx, r.db, query, group)
}

func (r *SqliteGroupRepository) IsMember(ctx context.Context, group, username string) (bool, error) {
	var ok int
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM group_members WHERE group_name = ? AND username = ?)`,
		group, username,
	).Scan(&ok)
	if err != nil {
		return false, err
	}
	return ok == 1, nil
}
