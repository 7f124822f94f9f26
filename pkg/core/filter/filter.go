// Package filter builds conjunctive row predicates that can be rendered as a
// SQL WHERE clause or evaluated directly against in-memory records.
package filter

import (
	"fmt"
	"strings"

	"mommydata/pkg/models"
)

// Dialect selects the placeholder syntax used when rendering SQL.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// Placeholder returns the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Predicate is a single condition of a Filter.
type Predicate interface {
	// Match evaluates the predicate against a record. NULL never matches a
	// comparison, mirroring SQL three-valued logic.
	Match(r models.Record) bool
	// Columns lists the columns the predicate reads.
	Columns() []string

	render(d Dialect, args *[]any) string
}

// Filter is a conjunction of predicates. The zero value matches every row.
type Filter struct {
	preds []Predicate
}

// New returns a filter over the given predicates.
func New(preds ...Predicate) Filter {
	return Filter{preds: append([]Predicate(nil), preds...)}
}

// And returns a copy of f extended with preds.
func (f Filter) And(preds ...Predicate) Filter {
	out := make([]Predicate, 0, len(f.preds)+len(preds))
	out = append(out, f.preds...)
	out = append(out, preds...)
	return Filter{preds: out}
}

// Len is the number of predicates.
func (f Filter) Len() int { return len(f.preds) }

// Columns lists every column referenced by the filter.
func (f Filter) Columns() []string {
	var cols []string
	for _, p := range f.preds {
		cols = append(cols, p.Columns()...)
	}
	return cols
}

// Match reports whether r satisfies all predicates.
func (f Filter) Match(r models.Record) bool {
	for _, p := range f.preds {
		if !p.Match(r) {
			return false
		}
	}
	return true
}

// SQL renders the filter as a WHERE body. Placeholders are numbered after the
// arguments already in args, and the extended argument list is returned.
// An empty filter renders as "".
func (f Filter) SQL(d Dialect, args []any) (string, []any) {
	if len(f.preds) == 0 {
		return "", args
	}
	parts := make([]string, 0, len(f.preds))
	for _, p := range f.preds {
		parts = append(parts, p.render(d, &args))
	}
	return strings.Join(parts, " AND "), args
}

func bind(d Dialect, args *[]any, v any) string {
	*args = append(*args, v)
	return d.Placeholder(len(*args))
}

// =============================================================================
// PREDICATES
// =============================================================================

type op string

const (
	opEq op = "="
	opNe op = "<>"
	opGe op = ">="
	opLe op = "<="
)

type comparison struct {
	col   string
	op    op
	value any
}

// Eq matches rows where col equals value.
func Eq(col string, value any) Predicate { return comparison{col, opEq, value} }

// Ge matches rows where col >= value.
func Ge(col string, value any) Predicate { return comparison{col, opGe, value} }

// Le matches rows where col <= value.
func Le(col string, value any) Predicate { return comparison{col, opLe, value} }

func (c comparison) Columns() []string { return []string{c.col} }

func (c comparison) Match(r models.Record) bool {
	cmp, ok := compare(r[c.col], c.value)
	if !ok {
		return false
	}
	switch c.op {
	case opEq:
		return cmp == 0
	case opNe:
		return cmp != 0
	case opGe:
		return cmp >= 0
	case opLe:
		return cmp <= 0
	}
	return false
}

func (c comparison) render(d Dialect, args *[]any) string {
	return fmt.Sprintf("%s %s %s", c.col, c.op, bind(d, args, c.value))
}

type notNull struct{ col string }

// NotNull matches rows where col has a value.
func NotNull(col string) Predicate { return notNull{col} }

func (n notNull) Columns() []string { return []string{n.col} }

func (n notNull) Match(r models.Record) bool { return r[n.col] != nil }

func (n notNull) render(Dialect, *[]any) string { return n.col + " IS NOT NULL" }

type in struct {
	col    string
	values []any
}

// In matches rows whose col equals any of values. With no values nothing matches.
func In(col string, values ...any) Predicate { return in{col, values} }

func (p in) Columns() []string { return []string{p.col} }

func (p in) Match(r models.Record) bool {
	for _, v := range p.values {
		if cmp, ok := compare(r[p.col], v); ok && cmp == 0 {
			return true
		}
	}
	return false
}

func (p in) render(d Dialect, args *[]any) string {
	switch len(p.values) {
	case 0:
		return "1 = 0"
	case 1:
		return fmt.Sprintf("%s = %s", p.col, bind(d, args, p.values[0]))
	}
	phs := make([]string, len(p.values))
	for i, v := range p.values {
		phs[i] = bind(d, args, v)
	}
	return fmt.Sprintf("%s IN (%s)", p.col, strings.Join(phs, ", "))
}

type nullOrNot struct {
	col   string
	value any
}

// NullOrNotEqual matches rows where col is NULL or differs from value.
func NullOrNotEqual(col string, value any) Predicate { return nullOrNot{col, value} }

func (p nullOrNot) Columns() []string { return []string{p.col} }

func (p nullOrNot) Match(r models.Record) bool {
	v := r[p.col]
	if v == nil {
		return true
	}
	cmp, ok := compare(v, p.value)
	return !ok || cmp != 0
}

func (p nullOrNot) render(d Dialect, args *[]any) string {
	return fmt.Sprintf("(%s IS NULL OR %s <> %s)", p.col, p.col, bind(d, args, p.value))
}

type anyTrue struct{ cols []string }

// AnyTrue matches rows where at least one of the boolean cols is true.
func AnyTrue(cols ...string) Predicate { return anyTrue{cols} }

func (p anyTrue) Columns() []string { return p.cols }

func (p anyTrue) Match(r models.Record) bool {
	for _, c := range p.cols {
		if b, ok := r[c].(bool); ok && b {
			return true
		}
	}
	return false
}

func (p anyTrue) render(d Dialect, args *[]any) string {
	if len(p.cols) == 0 {
		return "1 = 0"
	}
	parts := make([]string, len(p.cols))
	for i, c := range p.cols {
		parts[i] = fmt.Sprintf("%s = %s", c, bind(d, args, true))
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// compare orders a against b. ok is false when either side is NULL or the
// types are not comparable.
func compare(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		default:
			return 1, true
		}
	}
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if !okA || !okB {
		return 0, false
	}
	switch {
	case fa < fb:
		return -1, true
	case fa > fb:
		return 1, true
	default:
		return 0, true
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
