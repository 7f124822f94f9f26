package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveQuery(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveQuery("mother", 3*time.Millisecond, nil)
	m.ObserveQuery("mother", 5*time.Millisecond, errors.New("timeout"))
	m.ObserveQuery("birth", time.Millisecond, nil)

	assert.Equal(t, 2, testutil.CollectAndCount(m.StoreQueries))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StoreErrors.WithLabelValues("mother")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.StoreErrors.WithLabelValues("birth")))
}

func TestMiddleware_LabelsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/v1/factor/:name", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/api/v1/factor/diabetes", "/api/v1/factor/hypertension", "/nope"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(
		m.HTTPRequests.WithLabelValues("GET", "/api/v1/factor/:name", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestInitTracer_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "", "mommydata")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	shutdown(context.Background())
}
