package store

import (
	"context"
	"fmt"
)

// Drivers accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Open connects the configured backend. dsn is the Postgres URL for
// "postgres" and the database file path for "sqlite"; it is ignored for
// "memory".
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverPostgres:
		if err := InitDB(ctx, dsn); err != nil {
			return nil, err
		}
		return NewPostgres(GetPool()), nil
	case DriverSQLite:
		return OpenSQLite(dsn)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
}
