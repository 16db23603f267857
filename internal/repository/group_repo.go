package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"term-chat/internal/domain"
)

// GroupRepository persiste grupos y sus miembros.
type GroupRepository interface {
	// Create inserta el grupo y agrega al creador como primer miembro.
	Create(ctx context.Context, name, creator string) (domain.Group, error)
	Get(ctx context.Context, name string) (domain.Group, error)
	AddMember(ctx context.Context, group, username string) error
	RemoveMember(ctx context.Context, group, username string) error
	ListForUser(ctx context.Context, username string) ([]string, error)
	Members(ctx context.Context, group string) ([]string, error)
	IsMember(ctx context.Context, group, username string) (bool, error)
}

type PgGroupRepository struct {
	pool *pgxpool.Pool
}

func NewPgGroupRepository(pool *pgxpool.Pool) *PgGroupRepository {
	return &PgGroupRepository{pool: pool}
}

func (r *PgGroupRepository) Create(ctx context.Context, name, creator string) (domain.Group, error) {
	var g domain.Group
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const insertGroup = `
			INSERT INTO chat_groups (name, creator)
			VALUES ($1, $2)
			RETURNING name, creator, created_at
		`
		var createdAt time.Time
		if err := tx.QueryRow(ctx, insertGroup, name, creator).Scan(&g.Name, &g.Creator, &createdAt); err != nil {
			return err
		}
		g.CreatedAt = domain.FormatTimestamp(createdAt)
		_, err := tx.Exec(ctx, `INSERT INTO group_members (group_name, username) VALUES ($1, $2)`, name, creator)
		return err
	})
	if err != nil {
		return domain.Group{}, fmt.Errorf("insert group: %w", mapErr(err))
	}
	return g, nil
}

func (r *PgGroupRepository) Get(ctx context.Context, name string) (domain.Group, error) {
	const query = `SELECT name, creator, created_at FROM chat_groups WHERE name = $1`
	var (
		g         domain.Group
		createdAt time.Time
	)
	if err := r.pool.QueryRow(ctx, query, name).Scan(&g.Name, &g.Creator, &createdAt); err != nil {
		return domain.Group{}, mapErr(err)
	}
	g.CreatedAt = domain.FormatTimestamp(createdAt)
	return g, nil
}

func (r *PgGroupRepository) AddMember(ctx context.Context, group, username string) error {
	const query = `INSERT INTO group_members (group_name, username) VALUES ($1, $2)`
	if _, err := r.pool.Exec(ctx, query, group, username); err != nil {
		return fmt.Errorf("insert group member: %w", mapErr(err))
	}
	return nil
}

func (r *PgGroupRepository) RemoveMember(ctx context.Context, group, username string) error {
	const query = `DELETE FROM group_members WHERE group_name = $1 AND username = $2`
	tag, err := r.pool.Exec(ctx, query, group, username)
	if err != nil {
		return fmt.Errorf("delete group member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgGroupRepository) ListForUser(ctx context.Context, username string) ([]string, error) {
	const query = `
		SELECT group_name
		FROM group_members
		WHERE username = $1
		ORDER BY group_name ASC
	`
	return r.names(ctx, query, username)
}

func (r *PgGroupRepository) Members(ctx context.Context, group string) ([]string, error) {
	const query = `
		SELECT username
		FROM group_members
		WHERE group_name = $1
		ORDER BY joined_at ASC, username ASC
	`
	return r.names(ctx, query, group)
}

func (r *PgGroupRepository) IsMember(ctx context.Context, group, username string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM group_members WHERE group_name = $1 AND username = $2)`
	var ok bool
	if err := r.pool.QueryRow(ctx, query, group, username).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (r *PgGroupRepository) names(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query names: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect names: %w", err)
	}
	return names, nil
}
