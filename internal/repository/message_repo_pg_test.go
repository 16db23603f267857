package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"term-chat/internal/config"
	"term-chat/internal/db"
	"term-chat/internal/domain"
)

// Los tests contra Postgres solo corren con TEST_DATABASE_URL apuntando a una
// base descartable: vacían las tablas antes de cada test.
const testDatabaseURLEnv = "TEST_DATABASE_URL"

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv(testDatabaseURLEnv)
	if url == "" {
		t.Skipf("%s not set", testDatabaseURLEnv)
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, &config.Config{DatabaseURL: url})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE messages, group_members, chat_groups, friendships, users, system_config RESTART IDENTITY`)
	require.NoError(t, err)
	return pool
}

func insertPgMessageAt(t *testing.T, pool *pgxpool.Pool, sender, receiver, content, ts string, isGroup bool) int64 {
	t.Helper()
	at, err := time.ParseInLocation(domain.TimestampLayout, ts, time.UTC)
	require.NoError(t, err)
	var id int64
	err = pool.QueryRow(context.Background(),
		`INSERT INTO messages (sender, receiver, content, created_at, is_group) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		sender, receiver, content, at, isGroup,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestPgMessageRepositoryFetchReturnsMostRecentAscending(t *testing.T) {
	pool := newTestPool(t)
	repo := NewPgMessageRepository(pool)
	ctx := context.Background()

	insertPgMessageAt(t, pool, "alice", "bob", "one", "2024-01-01 10:00:00", false)
	insertPgMessageAt(t, pool, "bob", "alice", "two", "2024-01-01 10:00:01", false)
	insertPgMessageAt(t, pool, "alice", "carol", "other chat", "2024-01-01 10:00:02", false)
	insertPgMessageAt(t, pool, "alice", "bob", "three", "2024-01-01 10:00:03", false)
	insertPgMessageAt(t, pool, "alice", "bob", "as group", "2024-01-01 10:00:04", true)

	msgs, err := repo.Fetch(ctx, "bob", "alice", false, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "two", msgs[0].Content)
	assert.Equal(t, "three", msgs[1].Content)
	assert.Equal(t, "2024-01-01 10:00:03", msgs[1].Timestamp)
	assert.False(t, msgs[1].IsGroup)

	all, err := repo.Fetch(ctx, "alice", "bob", false, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	group, err := repo.Fetch(ctx, "", "bob", true, 10)
	require.NoError(t, err)
	require.Len(t, group, 1)
	assert.Equal(t, "as group", group[0].Content)
	assert.True(t, group[0].IsGroup)
}

func TestPgMessageRepositoryLatest(t *testing.T) {
	pool := newTestPool(t)
	repo := NewPgMessageRepository(pool)
	ctx := context.Background()

	_, err := repo.Latest(ctx, "alice", "bob", false)
	require.ErrorIs(t, err, ErrNotFound)

	insertPgMessageAt(t, pool, "alice", "bob", "early", "2024-01-01 09:00:00", false)
	first := insertPgMessageAt(t, pool, "bob", "alice", "same second a", "2024-01-01 10:00:00", false)
	second := insertPgMessageAt(t, pool, "alice", "bob", "same second b", "2024-01-01 10:00:00", false)
	require.Greater(t, second, first)

	msg, err := repo.Latest(ctx, "bob", "alice", false)
	require.NoError(t, err)
	assert.Equal(t, second, msg.ID)
	assert.Equal(t, "2024-01-01 10:00:00", msg.Timestamp)

	_, err = repo.Latest(ctx, "", "devs", true)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPgMessageRepositoryAppendAndGroupListing(t *testing.T) {
	pool := newTestPool(t)
	repo := NewPgMessageRepository(pool)
	ctx := context.Background()

	direct, err := repo.Append(ctx, "alice", "bob", "hola", false)
	require.NoError(t, err)
	assert.Greater(t, direct.ID, int64(0))
	assert.Len(t, direct.Timestamp, len(domain.TimestampLayout))

	_, err = repo.Append(ctx, "bob", "devs", "hi devs", true)
	require.NoError(t, err)
	_, err = repo.Append(ctx, "carol", "ops", "hi ops", true)
	require.NoError(t, err)
	_, err = repo.Append(ctx, "dave", "secret", "hidden", true)
	require.NoError(t, err)

	groups, err := repo.ListGroupMessages(ctx, []string{"devs", "ops"})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "devs", groups[0].Receiver)
	assert.Equal(t, "ops", groups[1].Receiver)

	none, err := repo.ListGroupMessages(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	involving, err := repo.ListDirectInvolving(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, involving, 1)
	assert.Equal(t, "hola", involving[0].Content)
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = r.values[i].(int64)
		case *string:
			*p = r.values[i].(string)
		case *time.Time:
			*p = r.values[i].(time.Time)
		case *bool:
			*p = r.values[i].(bool)
		default:
			return errors.New("unexpected scan destination")
		}
	}
	return nil
}

func TestScanPgMessageFormatsTimestamp(t *testing.T) {
	// pgx entrega TIMESTAMP sin zona como hora de pared en UTC.
	createdAt := time.Date(2024, 2, 29, 23, 59, 58, 0, time.UTC)
	msg, err := scanPgMessage(fakeRow{values: []any{int64(7), "alice", "devs", "hola", createdAt, true}})
	require.NoError(t, err)
	assert.Equal(t, domain.Message{
		ID: 7, Sender: "alice", Receiver: "devs", Content: "hola", Timestamp: "2024-02-29 23:59:58", IsGroup: true,
	}, msg)

	_, err = scanPgMessage(fakeRow{err: errors.New("boom")})
	require.EqualError(t, err, "boom")
}
