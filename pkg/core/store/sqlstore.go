package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mommydata/pkg/core/filter"
	"mommydata/pkg/models"
)

// insertBatchSize bounds the rows per multi-row INSERT statement.
const insertBatchSize = 100

// rows is the cursor shape shared by pgx and database/sql.
type rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// conn abstracts the driver handle. Each call acquires a pooled connection
// and releases it before returning (or on rows.Close for queries).
type conn interface {
	query(ctx context.Context, sql string, args ...any) (rows, error)
	exec(ctx context.Context, sql string, args ...any) error
	ping(ctx context.Context) error
	close() error
}

// SQLStore runs aggregate queries against a relational database.
type SQLStore struct {
	db      conn
	dialect filter.Dialect
	observe QueryObserver
}

// SetObserver installs a query latency observer.
func (s *SQLStore) SetObserver(o QueryObserver) {
	s.observe = o
}

// Dialect reports the SQL dialect in use.
func (s *SQLStore) Dialect() filter.Dialect {
	return s.dialect
}

// Aggregate runs a grouped count/mean/sum query.
func (s *SQLStore) Aggregate(ctx context.Context, q Query) (groups []Group, err error) {
	t, err := validate(q)
	if err != nil {
		return nil, err
	}
	if s.observe != nil {
		start := time.Now()
		defer func() { s.observe(t.Name, time.Since(start), err) }()
	}

	sql, args := buildAggregateSQL(s.dialect, t, q)
	rs, err := s.db.query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.Name, err)
	}
	defer rs.Close()

	for rs.Next() {
		g, err := scanGroup(rs, t, q.GroupBy)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s aggregate: %w", t.Name, err)
		}
		groups = append(groups, g)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s aggregate: %w", t.Name, err)
	}
	return groups, nil
}

// buildAggregateSQL renders the query. All identifiers come from the
// validated schema.
func buildAggregateSQL(d filter.Dialect, t models.Table, q Query) (string, []any) {
	avgExpr := "CAST(NULL AS DOUBLE PRECISION)"
	if t.HasColumn(models.ColPercentage) {
		avgExpr = "AVG(" + models.ColPercentage + ")"
	}
	sumExpr := "0"
	if t.CountColumn != "" {
		sumExpr = "COALESCE(SUM(" + t.CountColumn + "), 0)"
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if len(q.GroupBy) > 0 {
		sb.WriteString(strings.Join(q.GroupBy, ", "))
		sb.WriteString(", ")
	}
	fmt.Fprintf(&sb, "COUNT(*), %s, %s FROM %s", avgExpr, sumExpr, t.Name)

	where, args := q.Filter.SQL(d, nil)
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	if len(q.GroupBy) > 0 {
		cols := strings.Join(q.GroupBy, ", ")
		sb.WriteString(" GROUP BY ")
		sb.WriteString(cols)
		sb.WriteString(" ORDER BY ")
		sb.WriteString(cols)
	}
	return sb.String(), args
}

func scanGroup(rs rows, t models.Table, groupBy []string) (Group, error) {
	dests := make([]any, 0, len(groupBy)+3)
	for _, col := range groupBy {
		c, _ := t.Column(col)
		dests = append(dests, scanDest(c.Kind))
	}
	var (
		count int64
		avg   *float64
		sum   int64
	)
	dests = append(dests, &count, &avg, &sum)
	if err := rs.Scan(dests...); err != nil {
		return Group{}, err
	}

	key := make(map[string]any, len(groupBy))
	for i, col := range groupBy {
		key[col] = derefDest(dests[i])
	}
	return Group{Key: key, Count: int(count), Sum: sum, Avg: avg}, nil
}

func scanDest(k models.Kind) any {
	switch k {
	case models.KindInt:
		return new(*int64)
	case models.KindFloat:
		return new(*float64)
	case models.KindBool:
		return new(*bool)
	default:
		return new(*string)
	}
}

func derefDest(dest any) any {
	switch d := dest.(type) {
	case **int64:
		if *d == nil {
			return nil
		}
		return int(**d)
	case **float64:
		if *d == nil {
			return nil
		}
		return **d
	case **bool:
		if *d == nil {
			return nil
		}
		return **d
	case **string:
		if *d == nil {
			return nil
		}
		return **d
	}
	return nil
}

// Insert writes records in multi-row batches. Records are normalized to the
// column kinds first so both drivers receive identical Go types.
func (s *SQLStore) Insert(ctx context.Context, table string, recs []models.Record) (int, error) {
	t, ok := models.LookupTable(table)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	normalized := make([]models.Record, 0, len(recs))
	for i, rec := range recs {
		r, err := coerceRecord(t, rec)
		if err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
		normalized = append(normalized, r)
	}

	inserted := 0
	for start := 0; start < len(normalized); start += insertBatchSize {
		end := min(start+insertBatchSize, len(normalized))
		sql, args := buildInsertSQL(s.dialect, t, normalized[start:end])
		if err := s.db.exec(ctx, sql, args...); err != nil {
			return inserted, fmt.Errorf("failed to insert into %s: %w", t.Name, err)
		}
		inserted += end - start
	}
	return inserted, nil
}

func buildInsertSQL(d filter.Dialect, t models.Table, recs []models.Record) (string, []any) {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.Name
	}
	args := make([]any, 0, len(recs)*len(cols))
	tuples := make([]string, 0, len(recs))
	for _, rec := range recs {
		phs := make([]string, len(cols))
		for i, col := range cols {
			args = append(args, rec[col])
			phs[i] = d.Placeholder(len(args))
		}
		tuples = append(tuples, "("+strings.Join(phs, ", ")+")")
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		t.Name, strings.Join(cols, ", "), strings.Join(tuples, ", ")), args
}

// Reset deletes every row from the named tables (all tables when none given).
func (s *SQLStore) Reset(ctx context.Context, tables ...string) error {
	names, err := resetTables(tables)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := s.db.exec(ctx, "DELETE FROM "+name); err != nil {
			return fmt.Errorf("failed to clear %s: %w", name, err)
		}
	}
	return nil
}

// Migrate creates the observation tables and their year indexes.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schemaDDL(s.dialect) {
		if err := s.db.exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

func schemaDDL(d filter.Dialect) []string {
	idType := "BIGSERIAL PRIMARY KEY"
	if d == filter.SQLite {
		idType = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	var stmts []string
	for _, t := range models.Tables {
		defs := []string{models.ColID + " " + idType}
		for _, c := range t.Columns {
			def := c.Name + " " + sqlType(c.Kind)
			if c.Name == models.ColYear {
				def += " NOT NULL"
			}
			defs = append(defs, def)
		}
		stmts = append(stmts,
			fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.Name, strings.Join(defs, ", ")),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_year ON %s (%s)", t.Name, t.Name, models.ColYear),
		)
		if t.HasColumn(models.ColAgeGroup) {
			stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_age_group ON %s (%s)",
				t.Name, t.Name, models.ColAgeGroup))
		}
	}
	return stmts
}

func sqlType(k models.Kind) string {
	switch k {
	case models.KindInt:
		return "INTEGER"
	case models.KindFloat:
		return "DOUBLE PRECISION"
	case models.KindBool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// Ping checks the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.ping(ctx)
}

// Close releases the underlying pool.
func (s *SQLStore) Close() error {
	return s.db.close()
}
