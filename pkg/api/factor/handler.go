package factor

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mommydata/pkg/api/params"
	"mommydata/pkg/core/trend"
)

// Handler serves the factor trend endpoints.
type Handler struct {
	Engine *trend.Engine
}

// NewHandler creates a new factor handler
func NewHandler(engine *trend.Engine) *Handler {
	return &Handler{
		Engine: engine,
	}
}

// HandleTrend serves GET /api/v1/factor/:name
//
// Query: age_group, start_year (latest year), end_year (earliest year),
// sub_group (repeatable).
func (h *Handler) HandleTrend(c *gin.Context) {
	req, ok := parseRequest(c)
	if !ok {
		return
	}
	req.SubGroups = params.Strings(c, "sub_group")

	res, err := h.Engine.FactorTrend(c.Request.Context(), req)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "factor trend failed", "factor", req.Factor, "error", err)
		params.Fail(c, http.StatusInternalServerError, params.CodeInternal, "failed to load factor trend")
		return
	}
	c.JSON(http.StatusOK, res)
}

// HandleSimple serves GET /api/v1/factor/:name/simple
func (h *Handler) HandleSimple(c *gin.Context) {
	req, ok := parseRequest(c)
	if !ok {
		return
	}

	res, err := h.Engine.FactorTrendSimple(c.Request.Context(), req)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "factor simple trend failed", "factor", req.Factor, "error", err)
		params.Fail(c, http.StatusInternalServerError, params.CodeInternal, "failed to load factor trend")
		return
	}
	c.JSON(http.StatusOK, res)
}

// parseRequest writes a 400 and returns false on a malformed year.
func parseRequest(c *gin.Context) (trend.Request, bool) {
	start, err := params.Int(c, "start_year")
	if err != nil {
		params.BadRequest(c, err)
		return trend.Request{}, false
	}
	end, err := params.Int(c, "end_year")
	if err != nil {
		params.BadRequest(c, err)
		return trend.Request{}, false
	}
	return trend.Request{
		Factor:    c.Param("name"),
		AgeGroup:  strings.TrimSpace(c.Query("age_group")),
		StartYear: start,
		EndYear:   end,
	}, true
}
