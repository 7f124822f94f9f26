package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mommydata/pkg/api/params"
	"mommydata/pkg/core/scenario"
	"mommydata/pkg/core/store"
	"mommydata/pkg/core/trend"
	"mommydata/pkg/models"
	"mommydata/pkg/observability"
)

// =============================================================================
// FIXTURES
// =============================================================================

func seededStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore()
	mothers := []models.Record{
		{models.ColYear: 2022, models.ColAgeGroup: "20-24", models.ColDiabetesPre: true, models.ColDiabetesSubgroup: "Gestational diabetes", models.ColPercentage: 5.0, models.ColTotalMothers: 30},
		{models.ColYear: 2023, models.ColAgeGroup: "20-24", models.ColDiabetesPre: true, models.ColDiabetesSubgroup: "Gestational diabetes", models.ColPercentage: 7.0, models.ColTotalMothers: 30},
		{models.ColYear: 2023, models.ColAgeGroup: "20-24", models.ColDiabetesPre: false, models.ColDiabetesSubgroup: "No diabetes", models.ColPercentage: 93.0, models.ColTotalMothers: 70},
		{models.ColYear: 2023, models.ColAgeGroup: "Total", models.ColDiabetesPre: true, models.ColDiabetesSubgroup: "Gestational diabetes", models.ColPercentage: 9.0, models.ColTotalMothers: 999},
	}
	_, err := s.Insert(context.Background(), models.TableMother, mothers)
	require.NoError(t, err)
	return s
}

type failingAggregator struct{}

func (failingAggregator) Aggregate(context.Context, store.Query) ([]store.Group, error) {
	return nil, errors.New("database is locked")
}

func newTestRouter(src interface {
	Aggregate(context.Context, store.Query) ([]store.Group, error)
}, metrics *observability.Metrics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(Deps{
		Engine:      trend.NewEngine(src),
		Scenarios:   scenario.NewService(src, scenario.DefaultReferenceYear),
		Metrics:     metrics,
		CORSOrigins: []string{"http://localhost:3000"},
	})
}

func do(r http.Handler, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// =============================================================================
// FACTOR ROUTES
// =============================================================================

func TestFactorTrend(t *testing.T) {
	r := newTestRouter(seededStore(t), nil)

	w := do(r, http.MethodGet, "/api/v1/factor/diabetes?age_group=20-24&start_year=2023&end_year=2023", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Factor       string                                   `json:"factor"`
		UserAgeGroup *string                                  `json:"user_age_group"`
		Years        []int                                    `json:"years"`
		AgeGroups    map[string]map[string]map[string]float64 `json:"age_groups"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "diabetes", body.Factor)
	require.NotNil(t, body.UserAgeGroup)
	assert.Equal(t, "20-24", *body.UserAgeGroup)
	assert.Equal(t, []int{2023}, body.Years)
	assert.Equal(t, 7.0, body.AgeGroups["20-24"]["Gestational diabetes"]["2023"])
	assert.NotContains(t, body.AgeGroups, "Total")
}

func TestFactorTrend_SubGroupRepeatable(t *testing.T) {
	r := newTestRouter(seededStore(t), nil)

	w := do(r, http.MethodGet, "/api/v1/factor/diabetes?sub_group=No+diabetes&sub_group=Other", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		AgeGroups map[string]map[string]map[string]float64 `json:"age_groups"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]map[string]map[string]float64{
		"20-24": {"No diabetes": {"2023": 93.0}},
	}, body.AgeGroups)
}

func TestFactorTrend_SubGroupMatchedVerbatim(t *testing.T) {
	r := newTestRouter(seededStore(t), nil)

	// "+No+diabetes" decodes to " No diabetes", which is not a stored label.
	w := do(r, http.MethodGet, "/api/v1/factor/diabetes?sub_group=+No+diabetes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"factor":"diabetes","user_age_group":null,"years":[],"age_groups":{}}`, w.Body.String())
}

func TestFactorTrend_UnknownFactorIsEmpty(t *testing.T) {
	r := newTestRouter(seededStore(t), nil)

	for _, path := range []string{"/api/v1/factor/smoking", "/api/v1/factor/smoking/simple"} {
		w := do(r, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.JSONEq(t, `{"factor":"smoking","user_age_group":null,"years":[],"age_groups":{}}`, w.Body.String(), path)
	}
}

func TestFactorSimple(t *testing.T) {
	r := newTestRouter(seededStore(t), nil)

	w := do(r, http.MethodGet, "/api/v1/factor/diabetes/simple", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Years     []int                                    `json:"years"`
		AgeGroups map[string]map[string]map[string]float64 `json:"age_groups"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []int{2022, 2023}, body.Years)
	assert.InDelta(t, 30.0, body.AgeGroups["20-24"]["Yes"]["2023"], 1e-9)
	assert.InDelta(t, 70.0, body.AgeGroups["20-24"]["No"]["2023"], 1e-9)
	assert.InDelta(t, 100.0, body.AgeGroups["20-24"]["Yes"]["2022"], 1e-9)
	assert.NotContains(t, body.AgeGroups, "Total")
}

func TestFactor_MalformedYearIsBadRequest(t *testing.T) {
	r := newTestRouter(seededStore(t), nil)

	for _, path := range []string{
		"/api/v1/factor/diabetes?start_year=last",
		"/api/v1/factor/diabetes/simple?end_year=2020.5",
	} {
		w := do(r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)

		var body params.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, params.CodeInvalidParam, body.Code)
	}
}

func TestFactor_StoreFailureIsInternalError(t *testing.T) {
	r := newTestRouter(failingAggregator{}, nil)

	w := do(r, http.MethodGet, "/api/v1/factor/diabetes", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "database is locked")
}

// =============================================================================
// SCENARIO ROUTES
// =============================================================================

func TestScenarioPreparing(t *testing.T) {
	r := newTestRouter(seededStore(t), nil)

	w := do(r, http.MethodGet, "/api/v1/scenario/preparing?diabetes=true&age_group=20-24", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body scenario.PreparingResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Mothers.Total)
	assert.InDelta(t, 7.0, body.Mothers.AvgPercentage, 1e-9)
	assert.Equal(t, 3, body.OverallAverage.Total)
	assert.NotNil(t, body.Complications)
}

func TestScenarioPreparing_MalformedBool(t *testing.T) {
	r := newTestRouter(seededStore(t), nil)

	w := do(r, http.MethodGet, "/api/v1/scenario/preparing?hypertension=sometimes", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScenarioPregnant(t *testing.T) {
	r := newTestRouter(seededStore(t), nil)

	w := do(r, http.MethodGet, "/api/v1/scenario/pregnant?current_week=20&lhd=Sydney", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"labour_onset": [],
		"birth_types": [],
		"antenatal_first_visit": [],
		"preterm": {"count": 0, "percentage": 0},
		"low_birth_weight": {"count": 0, "percentage": 0},
		"nicu": {"count": 0, "percentage": 0}
	}`, w.Body.String())

	w = do(r, http.MethodGet, "/api/v1/scenario/pregnant?current_week=twenty", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestComparison(t *testing.T) {
	r := newTestRouter(seededStore(t), nil)

	w := do(r, http.MethodGet, "/api/v1/comparison/preparing?diabetes=no", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body scenario.Comparison
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "preparing", body.Scenario)
	require.NotNil(t, body.UserConditions.Diabetes)
	assert.False(t, *body.UserConditions.Diabetes)
	assert.Equal(t, 1, body.UserStats.Total)

	w = do(r, http.MethodGet, "/api/v1/comparison/postpartum", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =============================================================================
// AMBIENT ROUTES AND MIDDLEWARE
// =============================================================================

func TestHealth(t *testing.T) {
	r := newTestRouter(seededStore(t), nil)

	w := do(r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRequestID(t *testing.T) {
	r := newTestRouter(seededStore(t), nil)

	w := do(r, http.MethodGet, "/health", nil)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	w = do(r, http.MethodGet, "/health", map[string]string{RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	r := newTestRouter(seededStore(t), nil)

	w := do(r, http.MethodOptions, "/api/v1/factor/diabetes", map[string]string{"Origin": "http://localhost:3000"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(r, http.MethodGet, "/health", map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsRoute(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())
	r := newTestRouter(seededStore(t), m)

	do(r, http.MethodGet, "/health", nil)
	w := do(r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
