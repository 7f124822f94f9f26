package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"mommydata/pkg/core/filter"
)

// OpenSQLite opens (creating if needed) a file-backed SQLite store.
// SQLite allows a single writer, so the pool is capped at one connection.
func OpenSQLite(path string) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return &SQLStore{db: sqlConn{db}, dialect: filter.SQLite}, nil
}

type sqlConn struct {
	db *sql.DB
}

func (c sqlConn) query(ctx context.Context, query string, args ...any) (rows, error) {
	rs, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rs}, nil
}

func (c sqlConn) exec(ctx context.Context, query string, args ...any) error {
	_, err := c.db.ExecContext(ctx, query, args...)
	return err
}

func (c sqlConn) ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c sqlConn) close() error {
	return c.db.Close()
}

// sqlRows adapts *sql.Rows, whose Close returns an error.
type sqlRows struct {
	*sql.Rows
}

func (r sqlRows) Close() { _ = r.Rows.Close() }
