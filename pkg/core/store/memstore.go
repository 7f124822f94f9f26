package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"mommydata/pkg/models"
)

// =============================================================================
// IN-MEMORY STORE (For development/testing)
// Production should use Postgres or the SQLite file store
// =============================================================================

// MemoryStore implements Store over records held in memory. Aggregation
// follows SQL semantics: AVG skips NULL percentages, SUM of an absent count
// column is 0, comparisons against NULL never match.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string][]models.Record
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string][]models.Record)}
}

// Aggregate groups matching records and computes count, mean and sum.
func (s *MemoryStore) Aggregate(ctx context.Context, q Query) ([]Group, error) {
	t, err := validate(q)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type acc struct {
		group  Group
		pctSum float64
		pctN   int
	}
	grouped := make(map[string]*acc)
	order := make([]string, 0)

	for _, rec := range s.tables[t.Name] {
		if !q.Filter.Match(rec) {
			continue
		}
		keyParts := make([]string, len(q.GroupBy))
		for i, col := range q.GroupBy {
			keyParts[i] = fmt.Sprintf("%T:%v", rec[col], rec[col])
		}
		k := strings.Join(keyParts, "|")

		a, exists := grouped[k]
		if !exists {
			key := make(map[string]any, len(q.GroupBy))
			for _, col := range q.GroupBy {
				key[col] = rec[col]
			}
			a = &acc{group: Group{Key: key}}
			grouped[k] = a
			order = append(order, k)
		}

		a.group.Count++
		if t.CountColumn != "" {
			if n, ok := rec[t.CountColumn].(int); ok {
				a.group.Sum += int64(n)
			}
		}
		if pct, ok := rec[models.ColPercentage].(float64); ok {
			a.pctSum += pct
			a.pctN++
		}
	}

	// An ungrouped aggregate always yields one row.
	if len(q.GroupBy) == 0 && len(order) == 0 {
		return []Group{{Key: map[string]any{}}}, nil
	}

	groups := make([]Group, 0, len(order))
	for _, k := range order {
		a := grouped[k]
		if a.pctN > 0 {
			avg := a.pctSum / float64(a.pctN)
			a.group.Avg = &avg
		}
		groups = append(groups, a.group)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		for _, col := range q.GroupBy {
			if c := orderValues(groups[i].Key[col], groups[j].Key[col]); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return groups, nil
}

// orderValues sorts NULL first, then by natural order within a type.
func orderValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch x := a.(type) {
	case int:
		if y, ok := b.(int); ok {
			return x - y
		}
	case float64:
		if y, ok := b.(float64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			}
			return 1
		}
	}
	return strings.Compare(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b))
}

// Insert stores normalized copies of recs.
func (s *MemoryStore) Insert(ctx context.Context, table string, recs []models.Record) (int, error) {
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

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t.Name] = append(s.tables[t.Name], normalized...)
	return len(normalized), nil
}

// Reset clears the named tables (all tables when none given).
func (s *MemoryStore) Reset(ctx context.Context, tables ...string) error {
	names, err := resetTables(tables)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		delete(s.tables, name)
	}
	return nil
}

// Migrate is a no-op; tables exist implicitly.
func (s *MemoryStore) Migrate(ctx context.Context) error { return nil }

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
