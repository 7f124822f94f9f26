package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mommydata/pkg/core/filter"
	"mommydata/pkg/models"
)

var (
	// ErrUnknownTable is returned for a table outside the observation schema.
	ErrUnknownTable = errors.New("unknown table")
	// ErrUnknownColumn is returned for a column the table does not store.
	ErrUnknownColumn = errors.New("unknown column")
)

// Store is the observation row store: a grouped aggregate-query capability
// plus the write path used by the offline importer.
type Store interface {
	Aggregate(ctx context.Context, q Query) ([]Group, error)
	Insert(ctx context.Context, table string, recs []models.Record) (int, error)
	Reset(ctx context.Context, tables ...string) error
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// QueryObserver receives the duration of every aggregate query.
type QueryObserver func(table string, elapsed time.Duration, err error)

// Query is a grouped aggregate over one table:
//
//	SELECT <GroupBy>, COUNT(*), AVG(percentage), SUM(<count column>)
//	FROM <Table> WHERE <Filter> GROUP BY <GroupBy>
//
// With no GroupBy exactly one Group is returned, even when no rows match.
type Query struct {
	Table   string
	GroupBy []string
	Filter  filter.Filter
}

// Group is one aggregate row.
type Group struct {
	// Key holds the GroupBy values: int, float64, string, bool or nil.
	Key map[string]any
	// Count is the number of matching rows.
	Count int
	// Sum is the sum of the table's count column (0 when the table has none).
	Sum int64
	// Avg is the mean of the non-null percentages, nil when there are none.
	Avg *float64
}

// String returns the string key for col; ok is false for NULL.
func (g Group) String(col string) (string, bool) {
	s, ok := g.Key[col].(string)
	return s, ok
}

// Int returns the integer key for col; ok is false for NULL.
func (g Group) Int(col string) (int, bool) {
	n, ok := g.Key[col].(int)
	return n, ok
}

// Bool returns the boolean key for col; ok is false for NULL.
func (g Group) Bool(col string) (bool, bool) {
	b, ok := g.Key[col].(bool)
	return b, ok
}

// AvgOrZero returns the mean percentage, or 0 when undefined.
func (g Group) AvgOrZero() float64 {
	if g.Avg == nil {
		return 0
	}
	return *g.Avg
}

// validate resolves the query table and checks every referenced column
// against the schema. Column names are spliced into SQL, so this is the
// whitelist guarding them.
func validate(q Query) (models.Table, error) {
	t, ok := models.LookupTable(q.Table)
	if !ok {
		return models.Table{}, fmt.Errorf("%w: %q", ErrUnknownTable, q.Table)
	}
	for _, col := range q.GroupBy {
		if !t.HasColumn(col) {
			return models.Table{}, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, col)
		}
	}
	for _, col := range q.Filter.Columns() {
		if !t.HasColumn(col) {
			return models.Table{}, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, col)
		}
	}
	return t, nil
}

// coerceRecord normalizes a record to the table's column kinds. Unknown
// columns are rejected.
func coerceRecord(t models.Table, rec models.Record) (models.Record, error) {
	out := make(models.Record, len(t.Columns))
	for k := range rec {
		if !t.HasColumn(k) {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, k)
		}
	}
	for _, c := range t.Columns {
		v, err := models.Coerce(c.Kind, rec[c.Name])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name, c.Name, err)
		}
		out[c.Name] = v
	}
	if out[models.ColYear] == nil {
		return nil, fmt.Errorf("%s: year is required", t.Name)
	}
	return out, nil
}

// resetTables resolves the tables to clear; none means all of them.
func resetTables(tables []string) ([]string, error) {
	if len(tables) == 0 {
		names := make([]string, 0, len(models.Tables))
		for _, t := range models.Tables {
			names = append(names, t.Name)
		}
		return names, nil
	}
	for _, name := range tables {
		if _, ok := models.LookupTable(name); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTable, name)
		}
	}
	return tables, nil
}
