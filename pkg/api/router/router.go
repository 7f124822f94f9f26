// Package router assembles the gin engine: middleware, health, metrics and
// the versioned API routes.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"mommydata/pkg/api/factor"
	"mommydata/pkg/api/scenario"
	coreScenario "mommydata/pkg/core/scenario"
	"mommydata/pkg/core/trend"
	"mommydata/pkg/observability"
)

// Deps are the services the routes serve.
type Deps struct {
	Engine      *trend.Engine
	Scenarios   *coreScenario.Service
	Metrics     *observability.Metrics
	CORSOrigins []string
	ServiceName string
}

// New builds the engine. A nil Metrics disables the /metrics route and the
// metrics middleware.
func New(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), Logger(), CORS(d.CORSOrigins))
	if d.ServiceName != "" {
		router.Use(otelgin.Middleware(d.ServiceName))
	}
	if d.Metrics != nil {
		router.Use(d.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	factors := factor.NewHandler(d.Engine)
	scenarios := scenario.NewHandler(d.Scenarios)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/factor/:name", factors.HandleTrend)
		v1.GET("/factor/:name/simple", factors.HandleSimple)
		v1.GET("/scenario/preparing", scenarios.HandlePreparing)
		v1.GET("/scenario/pregnant", scenarios.HandlePregnant)
		v1.GET("/comparison/:scenario", scenarios.HandleComparison)
	}
	return router
}
