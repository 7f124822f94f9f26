// Package trend reshapes per-factor observation rows into multi-year series
// grouped by age group and sub-category.
package trend

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mommydata/pkg/core/filter"
	"mommydata/pkg/core/store"
	"mommydata/pkg/models"
)

// Aggregator is the store capability the engine reads through.
type Aggregator interface {
	Aggregate(ctx context.Context, q store.Query) ([]store.Group, error)
}

// Request selects a factor trend.
//
// StartYear is the upper bound (latest year) and EndYear the lower bound
// (earliest year). Both set gives the inclusive range [EndYear, StartYear].
type Request struct {
	Factor string
	// AgeGroup is the caller's own age group. It is echoed back for client
	// side highlighting and does not restrict rows.
	AgeGroup  string
	StartYear *int
	EndYear   *int
	// SubGroups restricts the detailed view by exact sub-group membership.
	SubGroups []string
}

// Result is the reshaped trend. Years is sorted ascending without duplicates.
type Result struct {
	Factor       string  `json:"factor"`
	UserAgeGroup *string `json:"user_age_group"`
	Years        []int   `json:"years"`
	AgeGroups    Series  `json:"age_groups"`
}

func emptyResult(req Request) *Result {
	r := &Result{
		Factor:    req.Factor,
		Years:     []int{},
		AgeGroups: Series{},
	}
	if req.AgeGroup != "" {
		ag := req.AgeGroup
		r.UserAgeGroup = &ag
	}
	return r
}

// Engine computes factor trends. It holds no per-request state.
type Engine struct {
	src    Aggregator
	tracer trace.Tracer
}

// NewEngine creates an engine reading from src.
func NewEngine(src Aggregator) *Engine {
	return &Engine{
		src:    src,
		tracer: otel.Tracer("mommydata/trend"),
	}
}

// FactorTrend returns the detailed view: mean percentage per
// age_group -> sub_group -> year. An unrecognized factor yields an empty
// result, not an error.
func (e *Engine) FactorTrend(ctx context.Context, req Request) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "trend.FactorTrend",
		trace.WithAttributes(attribute.String("factor", req.Factor)))
	defer span.End()

	result := emptyResult(req)
	f, ok := LookupFactor(req.Factor)
	if !ok {
		return result, nil
	}

	var b filter.Builder
	b.Add(filter.NotNull(f.FlagColumn), filter.NotNull(models.ColAgeGroup)).
		InStrings(f.SubgroupColumn, req.SubGroups).
		Add(yearBounds(req.StartYear, req.EndYear)...)

	groups, err := e.src.Aggregate(ctx, store.Query{
		Table:   models.TableMother,
		GroupBy: []string{models.ColYear, models.ColAgeGroup, f.SubgroupColumn},
		Filter:  b.Build(),
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("factor %s trend: %w", f.Name, err)
	}

	rows := make([]SubgroupRow, 0, len(groups))
	for _, g := range groups {
		year, ok := g.Int(models.ColYear)
		if !ok {
			continue
		}
		rows = append(rows, SubgroupRow{
			Year:       year,
			AgeGroup:   stringKey(g, models.ColAgeGroup),
			SubGroup:   stringKey(g, f.SubgroupColumn),
			Percentage: g.Avg,
		})
	}

	result.Years, result.AgeGroups = ReshapeSubgroups(rows)
	span.SetAttributes(attribute.Int("groups", len(groups)), attribute.Int("years", len(result.Years)))
	slog.Debug("factor trend computed", "factor", f.Name, "groups", len(groups), "age_groups", len(result.AgeGroups))
	return result, nil
}

// FactorTrendSimple returns the Yes/No view: the share of mothers with and
// without the factor per age_group -> year, from summed counts. Sub-group
// rows labelled exactly "Total" are excluded so only disjoint mass remains.
func (e *Engine) FactorTrendSimple(ctx context.Context, req Request) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "trend.FactorTrendSimple",
		trace.WithAttributes(attribute.String("factor", req.Factor)))
	defer span.End()

	result := emptyResult(req)
	f, ok := LookupFactor(req.Factor)
	if !ok {
		return result, nil
	}

	var b filter.Builder
	b.Add(
		filter.NotNull(f.FlagColumn),
		filter.NotNull(models.ColAgeGroup),
		filter.NullOrNotEqual(f.SubgroupColumn, TotalSubgroup),
	).Add(yearBounds(req.StartYear, req.EndYear)...)

	groups, err := e.src.Aggregate(ctx, store.Query{
		Table:   models.TableMother,
		GroupBy: []string{models.ColYear, models.ColAgeGroup, f.FlagColumn},
		Filter:  b.Build(),
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("factor %s simple trend: %w", f.Name, err)
	}

	rows := make([]FlagCountRow, 0, len(groups))
	for _, g := range groups {
		year, okYear := g.Int(models.ColYear)
		flag, okFlag := g.Bool(f.FlagColumn)
		if !okYear || !okFlag {
			continue
		}
		rows = append(rows, FlagCountRow{
			Year:      year,
			AgeGroup:  stringKey(g, models.ColAgeGroup),
			HasFactor: flag,
			Count:     g.Sum,
		})
	}

	result.Years, result.AgeGroups = ReshapeYesNo(rows)
	span.SetAttributes(attribute.Int("groups", len(groups)), attribute.Int("years", len(result.Years)))
	slog.Debug("factor simple trend computed", "factor", f.Name, "groups", len(groups), "age_groups", len(result.AgeGroups))
	return result, nil
}

// yearBounds applies the inverted convention: start is the latest year,
// end the earliest.
func yearBounds(start, end *int) []filter.Predicate {
	var preds []filter.Predicate
	if end != nil {
		preds = append(preds, filter.Ge(models.ColYear, *end))
	}
	if start != nil {
		preds = append(preds, filter.Le(models.ColYear, *start))
	}
	return preds
}

func stringKey(g store.Group, col string) *string {
	s, ok := g.String(col)
	if !ok {
		return nil
	}
	return &s
}
