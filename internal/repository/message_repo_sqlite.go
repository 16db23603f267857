package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"term-chat/internal/domain"
)

// SqliteMessageRepository implementa MessageRepository sobre database/sql + go-sqlite3.
type SqliteMessageRepository struct {
	db *sql.DB
}

func NewSqliteMessageRepository(db *sql.DB) *SqliteMessageRepository {
	return &SqliteMessageRepository{db: db}
}

const sqliteMessageColumns = `id, sender, receiver, content, created_at, is_group`

func (r *SqliteMessageRepository) Append(ctx context.Context, sender, receiver, content string, isGroup bool) (domain.Message, error) {
	const query = `
		INSERT INTO messages (sender, receiver, content, is_group)
		VALUES (?, ?, ?, ?)
		RETURNING ` + sqliteMessageColumns

	msg, err := scanSqliteMessage(r.db.QueryRowContext(ctx, query, sender, receiver, content, boolToInt(isGroup)))
	if err != nil {
		return domain.Message{}, fmt.Errorf("insert message: %w", mapErr(err))
	}
	return msg, nil
}

func (r *SqliteMessageRepository) Fetch(ctx context.Context, userA, userB string, isGroup bool, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	where, args := sqliteConversationFilter(userA, userB, isGroup)
	query := `
		SELECT ` + sqliteMessageColumns + ` FROM (
			SELECT ` + sqliteMessageColumns + `
			FROM messages
			WHERE ` + where + `
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		)
		ORDER BY created_at ASC, id ASC
	`
	return r.query(ctx, query, append(args, limit)...)
}

func (r *SqliteMessageRepository) Latest(ctx context.Context, userA, userB string, isGroup bool) (domain.Message, error) {
	where, args := sqliteConversationFilter(userA, userB, isGroup)
	query := `
		SELECT ` + sqliteMessageColumns + `
		FROM messages
		WHERE ` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	msg, err := scanSqliteMessage(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.Message{}, mapErr(err)
	}
	return msg, nil
}

func (r *SqliteMessageRepository) ListDirectInvolving(ctx context.Context, user string) ([]domain.Message, error) {
	const query = `
		SELECT ` + sqliteMessageColumns + `
		FROM messages
		WHERE (sender = ? OR receiver = ?) AND is_group = 0
		ORDER BY id ASC
	`
	return r.query(ctx, query, user, user)
}

func (r *SqliteMessageRepository) ListGroupMessages(ctx context.Context, groups []string) ([]domain.Message, error) {
	if len(groups) == 0 {
		return []domain.Message{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(groups)), ",")
	args := make([]any, 0, len(groups))
	for _, g := range groups {
		args = append(args, g)
	}
	query := `
		SELECT ` + sqliteMessageColumns + `
		FROM messages
		WHERE is_group = 1 AND receiver IN (` + placeholders + `)
		ORDER BY id ASC
	`
	return r.query(ctx, query, args...)
}

func (r *SqliteMessageRepository) query(ctx context.Context, query string, args ...any) ([]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		msg, err := scanSqliteMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}
	return messages, nil
}

func sqliteConversationFilter(userA, userB string, isGroup bool) (string, []any) {
	if isGroup {
		return `receiver = ? AND is_group = 1`, []any{userB}
	}
	return `((sender = ? AND receiver = ?) OR (sender = ? AND receiver = ?)) AND is_group = 0`,
		[]any{userA, userB, userB, userA}
}

func scanSqliteMessage(row rowScanner) (domain.Message, error) {
	var (
		msg     domain.Message
		isGroup int
	)
	if err := row.Scan(&msg.ID, &msg.Sender, &msg.Receiver, &msg.Content, &msg.Timestamp, &isGroup); err != nil {
		return domain.Message{}, err
	}
	msg.IsGroup = isGroup == 1
	return msg, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
