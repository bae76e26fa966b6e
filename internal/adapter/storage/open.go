package storage

import (
	"context"
	"errors"
	"fmt"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type OpenConfig struct {
	Driver     string
	Dir        string
	SQLitePath string
	DSN        string
}

// OpenKV opens the backend named by cfg.Driver. The returned close
// func is never nil.
func OpenKV(ctx context.Context, cfg OpenConfig) (KV, func(), error) {
	const op = "OpenKV"
	noop := func() {}

	switch cfg.Driver {
	case DriverMemory:
		return NewMemoryKV(), noop, nil
	case DriverFile:
		kv, err := NewFileKV(cfg.Dir)
		if err != nil {
			return nil, noop, fmt.Errorf("%s: %w", op, err)
		}
		return kv, noop, nil
	case DriverSQLite:
		db, err := NewSQLiteDB(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("%s: %w", op, err)
		}
		return NewSQLiteKV(db), db.Close, nil
	case DriverPostgres:
		db, err := NewPostgresDB(ctx, cfg.DSN)
		if err != nil {
			return nil, noop, fmt.Errorf("%s: %w", op, err)
		}
		return NewPostgresKV(db), db.Close, nil
	default:
		return nil, noop, fmt.Errorf("%s: %w: %q", op, ErrUnknownDriver, cfg.Driver)
	}
}
