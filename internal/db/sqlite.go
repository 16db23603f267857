package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Los timestamps se guardan como texto en el formato fijo del dominio.
const sqliteNow = `(strftime('%Y-%m-%d %H:%M:%S', 'now', 'localtime'))`

var sqliteMigrations = []string{
	`
CREATE TABLE IF NOT EXISTS users (
  id            INTEGER PRIMARY KEY AUTOINCREMENT,
  username      TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  created_at    TEXT NOT NULL DEFAULT ` + sqliteNow + `
);
`,
	`
CREATE TABLE IF NOT EXISTS friendships (
  user1      TEXT NOT NULL,
  user2      TEXT NOT NULL,
  created_at TEXT NOT NULL DEFAULT ` + sqliteNow + `,
  PRIMARY KEY (user1, user2)
);
`,
	`
CREATE TABLE IF NOT EXISTS chat_groups (
  name       TEXT PRIMARY KEY,
  creator    TEXT NOT NULL,
  created_at TEXT NOT NULL DEFAULT ` + sqliteNow + `
);
`,
	`
CREATE TABLE IF NOT EXISTS group_members (
  group_name TEXT NOT NULL REFERENCES chat_groups(name) ON DELETE CASCADE,
  username   TEXT NOT NULL,
  joined_at  TEXT NOT NULL DEFAULT ` + sqliteNow + `,
  PRIMARY KEY (group_name, username)
);
`,
	`
CREATE TABLE IF NOT EXISTS messages (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  sender     TEXT NOT NULL,
  receiver   TEXT NOT NULL,
  content    TEXT NOT NULL,
  created_at TEXT NOT NULL DEFAULT ` + sqliteNow + `,
  is_group   INTEGER NOT NULL DEFAULT 0
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

// OpenSQLite abre (o crea) la base SQLite en path y aplica las migraciones.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", filepath.ToSlash(path))
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	if err := enableWALMode(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := migrateSQLite(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func migrateSQLite(ctx context.Context, conn *sql.DB) error {
	var version int
	if err := conn.QueryRowContext(ctx, "PRAGMA user_version;").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version >= len(sqliteMigrations) {
		return nil
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i := version; i < len(sqliteMigrations); i++ {
		if _, err := tx.ExecContext(ctx, sqliteMigrations[i]); err != nil {
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d;", i+1)); err != nil {
			return fmt.Errorf("set schema version %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration transaction: %w", err)
	}
	return nil
}

func enableWALMode(ctx context.Context, conn *sql.DB) error {
	var journalMode string
	if err := conn.QueryRowContext(ctx, "PRAGMA journal_mode=WAL;").Scan(&journalMode); err != nil {
		return fmt.Errorf("enable WAL mode: %w", err)
	}
	if !strings.EqualFold(journalMode, "wal") {
		return fmt.Errorf("enable WAL mode: unexpected journal mode %q", journalMode)
	}
	return nil
}

// SQLiteSchemaVersion devuelve el número de migraciones conocidas.
func SQLiteSchemaVersion() int {
	return len(sqliteMigrations)
}
