// Package scenario answers the guided-question flows: a user profile snapshot
// against the population baseline plus scenario-specific breakdowns.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"mommydata/pkg/core/filter"
	"mommydata/pkg/core/store"
	"mommydata/pkg/models"
)

// DefaultReferenceYear is the dataset year used for snapshots and breakdowns.
const DefaultReferenceYear = 2023

// Category values used by the pregnant scenario.
const (
	GestationPreterm = "preterm"
	BirthWeightLow   = "low"
)

// ErrUnknownScenario is returned by Compare for a scenario it does not serve.
var ErrUnknownScenario = errors.New("unknown scenario")

// Aggregator is the store capability the service reads through.
type Aggregator interface {
	Aggregate(ctx context.Context, q store.Query) ([]store.Group, error)
}

// Service computes scenario results. It holds no per-request state.
type Service struct {
	src           Aggregator
	referenceYear int
	tracer        trace.Tracer
}

// NewService creates a scenario service. A non-positive referenceYear falls
// back to DefaultReferenceYear.
func NewService(src Aggregator, referenceYear int) *Service {
	if referenceYear <= 0 {
		referenceYear = DefaultReferenceYear
	}
	return &Service{
		src:           src,
		referenceYear: referenceYear,
		tracer:        otel.Tracer("mommydata/scenario"),
	}
}

// ReferenceYear is the year snapshots are fixed to.
func (s *Service) ReferenceYear() int { return s.referenceYear }

// PreparingResult is the preparing-for-pregnancy response.
type PreparingResult struct {
	Mothers        models.Summary        `json:"mothers"`
	Complications  []models.CategoryStat `json:"complications"`
	OverallAverage models.Summary        `json:"overall_average"`
}

// PregnantResult is the currently-pregnant response.
type PregnantResult struct {
	LabourOnset         []models.CategoryStat `json:"labour_onset"`
	BirthTypes          []models.CategoryStat `json:"birth_types"`
	AntenatalFirstVisit []models.CategoryStat `json:"antenatal_first_visit"`
	Preterm             models.Rate           `json:"preterm"`
	LowBirthWeight      models.Rate           `json:"low_birth_weight"`
	NICU                models.Rate           `json:"nicu"`
}

// Comparison is a user snapshot next to the population baseline.
type Comparison struct {
	Scenario       string           `json:"scenario"`
	UserConditions PreparingProfile `json:"user_conditions"`
	UserStats      models.Summary   `json:"user_stats"`
	OverallAverage models.Summary   `json:"overall_average"`
}

// Preparing returns the mother snapshot matching the profile, complication
// rates and the overall baseline, all for the reference year.
func (s *Service) Preparing(ctx context.Context, p PreparingProfile) (*PreparingResult, error) {
	ctx, span := s.tracer.Start(ctx, "scenario.Preparing",
		trace.WithAttributes(attribute.Int("profile_attributes", p.Attributes())))
	defer span.End()

	res := &PreparingResult{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		res.Mothers, err = s.ProfileSnapshot(gctx, p)
		return err
	})
	g.Go(func() (err error) {
		res.Complications, err = s.breakdown(gctx, models.TableComplication, models.ColComplicationType, s.yearFilter().Build())
		return err
	})
	g.Go(func() (err error) {
		res.OverallAverage, err = s.Baseline(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("preparing scenario: %w", err)
	}
	return res, nil
}

// Pregnant returns labour-onset, birth-type and antenatal first-visit
// breakdowns plus preterm, low birth weight and NICU rates for the
// reference year.
func (s *Service) Pregnant(ctx context.Context, p PregnantProfile) (*PregnantResult, error) {
	ctx, span := s.tracer.Start(ctx, "scenario.Pregnant",
		trace.WithAttributes(attribute.String("lhd", p.LHD)))
	defer span.End()

	birth := p.applyBirth(s.yearFilter()).Build()
	antenatal := p.applyAntenatal(s.yearFilter()).Build()
	preterm := p.applyBirth(s.yearFilter()).
		Add(filter.Eq(models.ColGestationalAgeCategory, GestationPreterm)).Build()
	lowWeight := s.yearFilter().Add(filter.Eq(models.ColBirthWeightCategory, BirthWeightLow)).Build()
	nicu := s.yearFilter().Add(filter.AnyTrue(models.ColNICUAdmission, models.ColSCUNICUAdmission)).Build()

	res := &PregnantResult{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		res.LabourOnset, err = s.breakdown(gctx, models.TableBirth, models.ColOnsetLabour, birth)
		return err
	})
	g.Go(func() (err error) {
		res.BirthTypes, err = s.breakdown(gctx, models.TableBirth, models.ColBirthType, birth)
		return err
	})
	g.Go(func() (err error) {
		res.AntenatalFirstVisit, err = s.breakdown(gctx, models.TableAntenatalCare, models.ColFirstVisitCategory, antenatal)
		return err
	})
	g.Go(func() (err error) {
		res.Preterm, err = s.rate(gctx, models.TableBirth, preterm)
		return err
	})
	g.Go(func() (err error) {
		res.LowBirthWeight, err = s.rate(gctx, models.TableBaby, lowWeight)
		return err
	})
	g.Go(func() (err error) {
		res.NICU, err = s.rate(gctx, models.TableBaby, nicu)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("pregnant scenario: %w", err)
	}
	return res, nil
}

// Compare puts the user's snapshot next to the population baseline. For
// the preparing scenario both come from the mother table; for pregnant
// they come from the birth table, where only the district applies.
func (s *Service) Compare(ctx context.Context, scenario string, p PreparingProfile) (*Comparison, error) {
	ctx, span := s.tracer.Start(ctx, "scenario.Compare",
		trace.WithAttributes(attribute.String("scenario", scenario)))
	defer span.End()

	var (
		table      string
		user, base filter.Filter
	)
	switch scenario {
	case Preparing:
		table = models.TableMother
		user = p.apply(s.yearFilter()).Build()
	case Pregnant:
		table = models.TableBirth
		user = s.yearFilter().EqString(models.ColLHD, p.LHD).Build()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, scenario)
	}
	base = s.yearFilter().Build()

	res := &Comparison{Scenario: scenario, UserConditions: p}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		res.UserStats, err = s.summary(gctx, table, user)
		return err
	})
	g.Go(func() (err error) {
		res.OverallAverage, err = s.summary(gctx, table, base)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%s comparison: %w", scenario, err)
	}
	return res, nil
}

// ProfileSnapshot is the count and mean percentage of mother rows matching
// the supplied attributes in the reference year. With no attributes it
// equals Baseline.
func (s *Service) ProfileSnapshot(ctx context.Context, p PreparingProfile) (models.Summary, error) {
	return s.summary(ctx, models.TableMother, p.apply(s.yearFilter()).Build())
}

// Baseline is the unfiltered mother snapshot for the reference year.
func (s *Service) Baseline(ctx context.Context) (models.Summary, error) {
	return s.summary(ctx, models.TableMother, s.yearFilter().Build())
}

// yearFilter starts a fresh builder pinned to the reference year.
func (s *Service) yearFilter() *filter.Builder {
	b := &filter.Builder{}
	return b.Add(filter.Eq(models.ColYear, s.referenceYear))
}

func (s *Service) summary(ctx context.Context, table string, f filter.Filter) (models.Summary, error) {
	groups, err := s.src.Aggregate(ctx, store.Query{Table: table, Filter: f})
	if err != nil {
		return models.Summary{}, err
	}
	if len(groups) == 0 {
		return models.Summary{}, nil
	}
	return models.Summary{Total: groups[0].Count, AvgPercentage: groups[0].AvgOrZero()}, nil
}

func (s *Service) rate(ctx context.Context, table string, f filter.Filter) (models.Rate, error) {
	sum, err := s.summary(ctx, table, f)
	if err != nil {
		return models.Rate{}, err
	}
	return models.Rate{Count: sum.Total, Percentage: sum.AvgPercentage}, nil
}

func (s *Service) breakdown(ctx context.Context, table, column string, f filter.Filter) ([]models.CategoryStat, error) {
	groups, err := s.src.Aggregate(ctx, store.Query{Table: table, GroupBy: []string{column}, Filter: f})
	if err != nil {
		return nil, err
	}
	stats := make([]models.CategoryStat, 0, len(groups))
	for _, g := range groups {
		stat := models.CategoryStat{Count: g.Count, Percentage: g.AvgOrZero()}
		if v, ok := g.String(column); ok {
			stat.Type = &v
		}
		stats = append(stats, stat)
	}
	slog.Debug("scenario breakdown", "table", table, "column", column, "categories", len(stats))
	return stats, nil
}
