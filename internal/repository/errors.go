package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound indica que la fila pedida no existe.
	ErrNotFound = errors.New("repository: record not found")
	// ErrAlreadyExists indica una violación de unicidad.
	ErrAlreadyExists = errors.New("repository: record already exists")
)

const pgUniqueViolation = "23505"

// mapErr traduce los errores de cada driver a los errores del paquete.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrAlreadyExists
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) &&
		(liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return ErrAlreadyExists
	}
	return err
}

// rowScanner cubre pgx.Row, pgx.Rows, *sql.Row y *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
