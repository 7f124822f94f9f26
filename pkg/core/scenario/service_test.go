package scenario

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mommydata/pkg/core/store"
	"mommydata/pkg/models"
)

func boolPtr(b bool) *bool { return &b }

// =============================================================================
// FIXTURES
// =============================================================================

func seed(t *testing.T) *store.MemoryStore {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()

	data := map[string][]models.Record{
		models.TableMother: {
			{models.ColYear: 2023, models.ColAgeGroup: "25-29", models.ColSmokingStatus: "No", models.ColDiabetesPre: false, models.ColLHD: "Sydney", models.ColPercentage: 10.0},
			{models.ColYear: 2023, models.ColAgeGroup: "25-29", models.ColSmokingStatus: "Yes", models.ColDiabetesPre: true, models.ColLHD: "Sydney", models.ColPercentage: 20.0},
			{models.ColYear: 2023, models.ColAgeGroup: "30-34", models.ColSmokingStatus: "No", models.ColDiabetesPre: false, models.ColLHD: "Hunter", models.ColPercentage: 30.0},
			{models.ColYear: 2022, models.ColAgeGroup: "25-29", models.ColSmokingStatus: "No", models.ColDiabetesPre: false, models.ColLHD: "Sydney", models.ColPercentage: 90.0},
		},
		models.TableComplication: {
			{models.ColYear: 2023, models.ColComplicationType: "Haemorrhage", models.ColPercentage: 4.0},
			{models.ColYear: 2023, models.ColComplicationType: "Haemorrhage", models.ColPercentage: 6.0},
			{models.ColYear: 2023, models.ColComplicationType: "Eclampsia", models.ColPercentage: 1.0},
			{models.ColYear: 2021, models.ColComplicationType: "Eclampsia", models.ColPercentage: 50.0},
		},
		models.TableBirth: {
			{models.ColYear: 2023, models.ColLHD: "Sydney", models.ColOnsetLabour: "Spontaneous", models.ColBirthType: "Vaginal", models.ColGestationalAgeCategory: "term", models.ColPercentage: 60.0},
			{models.ColYear: 2023, models.ColLHD: "Sydney", models.ColOnsetLabour: "Induced", models.ColBirthType: "Caesarean", models.ColGestationalAgeCategory: "preterm", models.ColPercentage: 8.0},
			{models.ColYear: 2023, models.ColLHD: "Hunter", models.ColOnsetLabour: "Induced", models.ColBirthType: "Vaginal", models.ColGestationalAgeCategory: "preterm", models.ColPercentage: 9.0},
		},
		models.TableBaby: {
			{models.ColYear: 2023, models.ColBirthWeightCategory: "low", models.ColNICUAdmission: true, models.ColPercentage: 6.0},
			{models.ColYear: 2023, models.ColBirthWeightCategory: "normal", models.ColSCUNICUAdmission: true, models.ColPercentage: 14.0},
			{models.ColYear: 2023, models.ColBirthWeightCategory: "normal", models.ColNICUAdmission: false, models.ColSCUNICUAdmission: false, models.ColPercentage: 80.0},
		},
		models.TableAntenatalCare: {
			{models.ColYear: 2023, models.ColFirstVisitCategory: "Before 14 weeks", models.ColLHD: "Sydney", models.ColPercentage: 70.0},
			{models.ColYear: 2023, models.ColFirstVisitCategory: "14-19 weeks", models.ColLHD: "Sydney", models.ColPercentage: 20.0},
		},
	}
	for table, recs := range data {
		_, err := s.Insert(ctx, table, recs)
		require.NoError(t, err)
	}
	return s
}

type failingAggregator struct{ err error }

func (f failingAggregator) Aggregate(context.Context, store.Query) ([]store.Group, error) {
	return nil, f.err
}

func categories(stats []models.CategoryStat) map[string]models.CategoryStat {
	out := make(map[string]models.CategoryStat, len(stats))
	for _, s := range stats {
		key := "<nil>"
		if s.Type != nil {
			key = *s.Type
		}
		out[key] = s
	}
	return out
}

// =============================================================================
// PREPARING
// =============================================================================

func TestPreparing_NoAttributesEqualsBaseline(t *testing.T) {
	svc := NewService(seed(t), 0)

	res, err := svc.Preparing(context.Background(), PreparingProfile{})
	require.NoError(t, err)

	assert.Equal(t, res.OverallAverage, res.Mothers)
	assert.Equal(t, 3, res.OverallAverage.Total)
	assert.InDelta(t, 20.0, res.OverallAverage.AvgPercentage, 1e-9)
}

func TestPreparing_ProfileNarrowsSnapshot(t *testing.T) {
	svc := NewService(seed(t), DefaultReferenceYear)

	res, err := svc.Preparing(context.Background(), PreparingProfile{
		AgeGroup: "25-29",
		Diabetes: boolPtr(false),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Mothers.Total)
	assert.InDelta(t, 10.0, res.Mothers.AvgPercentage, 1e-9)
	assert.Equal(t, 3, res.OverallAverage.Total)
}

func TestPreparing_NoMatchIsZero(t *testing.T) {
	svc := NewService(seed(t), DefaultReferenceYear)

	res, err := svc.Preparing(context.Background(), PreparingProfile{LHD: "Nowhere"})
	require.NoError(t, err)
	assert.Equal(t, models.Summary{}, res.Mothers)
}

func TestPreparing_ComplicationsForReferenceYear(t *testing.T) {
	svc := NewService(seed(t), DefaultReferenceYear)

	res, err := svc.Preparing(context.Background(), PreparingProfile{})
	require.NoError(t, err)

	got := categories(res.Complications)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got["Haemorrhage"].Count)
	assert.InDelta(t, 5.0, got["Haemorrhage"].Percentage, 1e-9)
	assert.Equal(t, 1, got["Eclampsia"].Count)
	assert.InDelta(t, 1.0, got["Eclampsia"].Percentage, 1e-9)
}

func TestPreparing_ReferenceYearIsConfigurable(t *testing.T) {
	svc := NewService(seed(t), 2022)

	res, err := svc.Preparing(context.Background(), PreparingProfile{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.OverallAverage.Total)
	assert.InDelta(t, 90.0, res.OverallAverage.AvgPercentage, 1e-9)
	assert.Empty(t, res.Complications)
}

func TestPreparing_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewService(failingAggregator{err: boom}, 0)

	_, err := svc.Preparing(context.Background(), PreparingProfile{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestPreparingProfile_Attributes(t *testing.T) {
	assert.Equal(t, 0, PreparingProfile{}.Attributes())
	assert.Equal(t, 3, PreparingProfile{Smoking: "No", Hypertension: boolPtr(false), LHD: "Sydney"}.Attributes())
}

// =============================================================================
// PREGNANT
// =============================================================================

func TestPregnant_Breakdowns(t *testing.T) {
	svc := NewService(seed(t), DefaultReferenceYear)

	res, err := svc.Pregnant(context.Background(), PregnantProfile{})
	require.NoError(t, err)

	onset := categories(res.LabourOnset)
	assert.Equal(t, 2, onset["Induced"].Count)
	assert.Equal(t, 1, onset["Spontaneous"].Count)

	types := categories(res.BirthTypes)
	assert.Equal(t, 2, types["Vaginal"].Count)
	assert.Equal(t, 1, types["Caesarean"].Count)

	assert.Equal(t, 2, res.Preterm.Count)
	assert.InDelta(t, 8.5, res.Preterm.Percentage, 1e-9)
	assert.Equal(t, models.Rate{Count: 1, Percentage: 6.0}, res.LowBirthWeight)
	assert.Equal(t, 2, res.NICU.Count)
	assert.InDelta(t, 10.0, res.NICU.Percentage, 1e-9)
	assert.Len(t, res.AntenatalFirstVisit, 2)
}

func TestPregnant_DistrictRestrictsBirthRows(t *testing.T) {
	svc := NewService(seed(t), DefaultReferenceYear)

	res, err := svc.Pregnant(context.Background(), PregnantProfile{LHD: "Hunter"})
	require.NoError(t, err)

	assert.Len(t, res.LabourOnset, 1)
	assert.Equal(t, 1, res.Preterm.Count)
	// Baby rates are not district specific.
	assert.Equal(t, 2, res.NICU.Count)
	assert.Empty(t, res.AntenatalFirstVisit)
}

func TestPregnant_AntenatalWeekSelectsCategory(t *testing.T) {
	svc := NewService(seed(t), DefaultReferenceYear)

	res, err := svc.Pregnant(context.Background(), PregnantProfile{AntenatalWeek: "Before 14 weeks"})
	require.NoError(t, err)

	require.Len(t, res.AntenatalFirstVisit, 1)
	assert.InDelta(t, 70.0, res.AntenatalFirstVisit[0].Percentage, 1e-9)
}

func TestPregnant_EmptyStoreYieldsEmptyBreakdowns(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), DefaultReferenceYear)

	res, err := svc.Pregnant(context.Background(), PregnantProfile{})
	require.NoError(t, err)
	assert.NotNil(t, res.LabourOnset)
	assert.Empty(t, res.LabourOnset)
	assert.Equal(t, models.Rate{}, res.Preterm)
}

// =============================================================================
// COMPARISON
// =============================================================================

func TestCompare_Preparing(t *testing.T) {
	svc := NewService(seed(t), DefaultReferenceYear)
	profile := PreparingProfile{Smoking: "No"}

	res, err := svc.Compare(context.Background(), Preparing, profile)
	require.NoError(t, err)

	assert.Equal(t, profile, res.UserConditions)
	assert.Equal(t, 2, res.UserStats.Total)
	assert.InDelta(t, 20.0, res.UserStats.AvgPercentage, 1e-9)
	assert.Equal(t, 3, res.OverallAverage.Total)
}

func TestCompare_UserStatsPinnedToReferenceYear(t *testing.T) {
	svc := NewService(seed(t), DefaultReferenceYear)

	// The 2022 row never counts, and an empty profile matches the baseline.
	res, err := svc.Compare(context.Background(), Preparing, PreparingProfile{})
	require.NoError(t, err)
	assert.Equal(t, res.OverallAverage, res.UserStats)
	assert.Equal(t, 3, res.UserStats.Total)
	assert.InDelta(t, 20.0, res.UserStats.AvgPercentage, 1e-9)
}

func TestCompare_Pregnant(t *testing.T) {
	svc := NewService(seed(t), DefaultReferenceYear)

	res, err := svc.Compare(context.Background(), Pregnant, PreparingProfile{LHD: "Sydney"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.UserStats.Total)
	assert.Equal(t, 3, res.OverallAverage.Total)
}

func TestCompare_UnknownScenario(t *testing.T) {
	svc := NewService(seed(t), DefaultReferenceYear)

	_, err := svc.Compare(context.Background(), "postnatal", PreparingProfile{})
	assert.ErrorIs(t, err, ErrUnknownScenario)
}
