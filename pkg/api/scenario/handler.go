package scenario

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mommydata/pkg/api/params"
	coreScenario "mommydata/pkg/core/scenario"
)

// Handler serves the scenario and comparison endpoints.
type Handler struct {
	Service *coreScenario.Service
}

// NewHandler creates a new scenario handler
func NewHandler(svc *coreScenario.Service) *Handler {
	return &Handler{
		Service: svc,
	}
}

// HandlePreparing serves GET /api/v1/scenario/preparing
func (h *Handler) HandlePreparing(c *gin.Context) {
	profile, ok := preparingProfile(c)
	if !ok {
		return
	}
	res, err := h.Service.Preparing(c.Request.Context(), profile)
	if err != nil {
		internalError(c, "preparing scenario failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// HandlePregnant serves GET /api/v1/scenario/pregnant
func (h *Handler) HandlePregnant(c *gin.Context) {
	week, err := params.Int(c, "current_week")
	if err != nil {
		params.BadRequest(c, err)
		return
	}
	profile := coreScenario.PregnantProfile{
		AgeGroup:      query(c, "age_group"),
		AntenatalWeek: query(c, "antenatal_week"),
		CurrentWeek:   week,
		LHD:           query(c, "lhd"),
	}
	res, err := h.Service.Pregnant(c.Request.Context(), profile)
	if err != nil {
		internalError(c, "pregnant scenario failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// HandleComparison serves GET /api/v1/comparison/:scenario
func (h *Handler) HandleComparison(c *gin.Context) {
	profile, ok := preparingProfile(c)
	if !ok {
		return
	}
	res, err := h.Service.Compare(c.Request.Context(), c.Param("scenario"), profile)
	switch {
	case errors.Is(err, coreScenario.ErrUnknownScenario):
		params.Fail(c, http.StatusNotFound, params.CodeUnknownScenario, err.Error())
		return
	case err != nil:
		internalError(c, "comparison failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func preparingProfile(c *gin.Context) (coreScenario.PreparingProfile, bool) {
	diabetes, err := params.Bool(c, "diabetes")
	if err != nil {
		params.BadRequest(c, err)
		return coreScenario.PreparingProfile{}, false
	}
	hypertension, err := params.Bool(c, "hypertension")
	if err != nil {
		params.BadRequest(c, err)
		return coreScenario.PreparingProfile{}, false
	}
	return coreScenario.PreparingProfile{
		AgeGroup:     query(c, "age_group"),
		Smoking:      query(c, "smoking"),
		BMI:          query(c, "bmi"),
		Diabetes:     diabetes,
		Hypertension: hypertension,
		LHD:          query(c, "lhd"),
	}, true
}

func query(c *gin.Context, name string) string {
	return strings.TrimSpace(c.Query(name))
}

func internalError(c *gin.Context, msg string, err error) {
	slog.ErrorContext(c.Request.Context(), msg, "error", err, "path", c.FullPath())
	params.Fail(c, http.StatusInternalServerError, params.CodeInternal, msg)
}
