package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var _ KV = (*SQLKV)(nil)

// A SQLKV keeps values in the cart_kv table.
type SQLKV struct {
	sqldb    sqldb
	getQuery string
	setQuery string
}

// NewPostgresKV expects the cart_kv table created by the migrator.
func NewPostgresKV(db sqldb) *SQLKV {
	return &SQLKV{
		sqldb:    db,
		getQuery: `SELECT value FROM cart_kv WHERE key = $1;`,
		setQuery: `
			INSERT INTO cart_kv (key, value, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET
				value = EXCLUDED.value,
				updated_at = EXCLUDED.updated_at;`,
	}
}

func NewSQLiteKV(db sqldb) *SQLKV {
	return &SQLKV{
		sqldb:    db,
		getQuery: `SELECT value FROM cart_kv WHERE key = ?;`,
		setQuery: `
			INSERT INTO cart_kv (key, value, updated_at)
			VALUES (?, ?, strftime('%s', 'now'))
			ON CONFLICT (key) DO UPDATE SET
				value = excluded.value,
				updated_at = excluded.updated_at;`,
	}
}

func (s *SQLKV) Get(ctx context.Context, key string) (string, error) {
	const op = "SQLKV.Get"

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var v string
	err := s.sqldb.QueryRowContext(ctx, s.getQuery, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func (s *SQLKV) Set(ctx context.Context, key, value string) error {
	const op = "SQLKV.Set"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.sqldb.ExecContext(ctx, s.setQuery, key, value); err != nil {
		return fmt.Errorf("%s: failed to exec: %w", op, err)
	}
	return nil
}
