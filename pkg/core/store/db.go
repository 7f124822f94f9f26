package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"mommydata/pkg/core/filter"
)

var (
	pool    *pgxpool.Pool
	initErr error
	once    sync.Once
)

// InitDB initializes the shared Postgres connection pool from dbURL.
// Later calls return the error of the first one and ignore dbURL.
func InitDB(ctx context.Context, dbURL string) error {
	once.Do(func() {
		if dbURL == "" {
			initErr = fmt.Errorf("DATABASE_URL environment variable not set")
			return
		}

		config, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			initErr = fmt.Errorf("failed to parse database config: %w", err)
			return
		}

		pool, initErr = pgxpool.NewWithConfig(ctx, config)
	})
	return initErr
}

// GetPool returns the database connection pool
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the database connection pool
func Close() {
	if pool != nil {
		pool.Close()
	}
}

// NewPostgres wraps a pgx pool as an observation store.
func NewPostgres(p *pgxpool.Pool) *SQLStore {
	return &SQLStore{db: pgxConn{p}, dialect: filter.Postgres}
}

type pgxConn struct {
	pool *pgxpool.Pool
}

func (c pgxConn) query(ctx context.Context, sql string, args ...any) (rows, error) {
	if c.pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	return c.pool.Query(ctx, sql, args...)
}

func (c pgxConn) exec(ctx context.Context, sql string, args ...any) error {
	if c.pool == nil {
		return fmt.Errorf("database pool not initialized")
	}
	_, err := c.pool.Exec(ctx, sql, args...)
	return err
}

func (c pgxConn) ping(ctx context.Context) error {
	if c.pool == nil {
		return fmt.Errorf("database pool not initialized")
	}
	return c.pool.Ping(ctx)
}

func (c pgxConn) close() error {
	if c.pool != nil {
		c.pool.Close()
	}
	return nil
}
