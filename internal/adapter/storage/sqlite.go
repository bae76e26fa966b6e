package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure Go driver, no CGO
)

// sqliteSchema runs on every open. The PostgreSQL table with the same
// shape is created by the migrator.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cart_kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// NewSQLiteDB opens the SQLite file at path, creating parent directories
// and the cart_kv table when missing.
func NewSQLiteDB(ctx context.Context, path string) (SQLDB, error) {
	const op = "NewSQLiteDB"
	log := slog.With("op", op)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return SQLDB{}, fmt.Errorf("%s: failed to create database directory: %w", op, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return SQLDB{}, fmt.Errorf("%s: failed to open database: %w", op, err)
	}
	// one writer keeps last-writer-wins without SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return SQLDB{}, fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	log.Info("database is available", "path", path)
	return SQLDB{db}, nil
}
