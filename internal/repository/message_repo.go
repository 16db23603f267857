package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"term-chat/internal/domain"
)

// MessageRepository es el store append-only de mensajes. El store asigna
// id y timestamp; los llamadores nunca los proveen.
type MessageRepository interface {
	Append(ctx context.Context, sender, receiver, content string, isGroup bool) (domain.Message, error)
	// Fetch devuelve los últimos limit mensajes de la conversación en orden
	// ascendente. En chats directos userA/userB se comparan en ambos sentidos;
	// en grupos solo se usa userB (nombre del grupo).
	Fetch(ctx context.Context, userA, userB string, isGroup bool, limit int) ([]domain.Message, error)
	// Latest devuelve el último mensaje de la conversación o ErrNotFound.
	Latest(ctx context.Context, userA, userB string, isGroup bool) (domain.Message, error)
	ListDirectInvolving(ctx context.Context, user string) ([]domain.Message, error)
	ListGroupMessages(ctx context.Context, groups []string) ([]domain.Message, error)
}

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

const pgMessageColumns = `id, sender, receiver, content, created_at, is_group`

func (r *PgMessageRepository) Append(ctx context.Context, sender, receiver, content string, isGroup bool) (domain.Message, error) {
	const query = `
		INSERT INTO messages (sender, receiver, content, is_group)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + pgMessageColumns

	msg, err := scanPgMessage(r.pool.QueryRow(ctx, query, sender, receiver, content, isGroup))
	if err != nil {
		return domain.Message{}, fmt.Errorf("insert message: %w", mapErr(err))
	}
	return msg, nil
}

func (r *PgMessageRepository) Fetch(ctx context.Context, userA, userB string, isGroup bool, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	var (
		query string
		args  []any
	)
	if isGroup {
		query = `
			SELECT ` + pgMessageColumns + ` FROM (
				SELECT ` + pgMessageColumns + `
				FROM messages
				WHERE receiver = $1 AND is_group = TRUE
				ORDER BY created_at DESC, id DESC
				LIMIT $2
			) recent
			ORDER BY created_at ASC, id ASC
		`
		args = []any{userB, limit}
	} else {
		query = `
			SELECT ` + pgMessageColumns + ` FROM (
				SELECT ` + pgMessageColumns + `
				FROM messages
				WHERE ((sender = $1 AND receiver = $2) OR (sender = $2 AND receiver = $1)) AND is_group = FALSE
				ORDER BY created_at DESC, id DESC
				LIMIT $3
			) recent
			ORDER BY created_at ASC, id ASC
		`
		args = []any{userA, userB, limit}
	}
	return r.query(ctx, query, args...)
}

func (r *PgMessageRepository) Latest(ctx context.Context, userA, userB string, isGroup bool) (domain.Message, error) {
	var (
		query string
		args  []any
	)
	if isGroup {
		query = `
			SELECT ` + pgMessageColumns + `
			FROM messages
			WHERE receiver = $1 AND is_group = TRUE
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		`
		args = []any{userB}
	} else {
		query = `
			SELECT ` + pgMessageColumns + `
			FROM messages
			WHERE ((sender = $1 AND receiver = $2) OR (sender = $2 AND receiver = $1)) AND is_group = FALSE
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		`
		args = []any{userA, userB}
	}
	msg, err := scanPgMessage(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return domain.Message{}, mapErr(err)
	}
	return msg, nil
}

func (r *PgMessageRepository) ListDirectInvolving(ctx context.Context, user string) ([]domain.Message, error) {
	const query = `
		SELECT ` + pgMessageColumns + `
		FROM messages
		WHERE (sender = $1 OR receiver = $1) AND is_group = FALSE
		ORDER BY id ASC
	`
	return r.query(ctx, query, user)
}

func (r *PgMessageRepository) ListGroupMessages(ctx context.Context, groups []string) ([]domain.Message, error) {
	if len(groups) == 0 {
		return []domain.Message{}, nil
	}
	const query = `
		SELECT ` + pgMessageColumns + `
		FROM messages
		WHERE is_group = TRUE AND receiver = ANY($1)
		ORDER BY id ASC
	`
	return r.query(ctx, query, groups)
}

func (r *PgMessageRepository) query(ctx context.Context, query string, args ...any) ([]domain.Message, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		msg, err := scanPgMessage(rows)
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

// Postgres guarda TIMESTAMP nativo; se convierte al formato fijo aquí.
func scanPgMessage(row rowScanner) (domain.Message, error) {
	var (
		msg       domain.Message
		createdAt time.Time
	)
	if err := row.Scan(&msg.ID, &msg.Sender, &msg.Receiver, &msg.Content, &createdAt, &msg.IsGroup); err != nil {
		return domain.Message{}, err
	}
	msg.Timestamp = domain.FormatTimestamp(createdAt)
	return msg, nil
}
