package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/besterhub/kgc-league/internal/models"
	"github.com/besterhub/kgc-league/internal/pairing"
	"github.com/besterhub/kgc-league/internal/services"
	"github.com/besterhub/kgc-league/pkg/utils"
)

type PairingHandler struct {
	pairings *services.PairingService
}

func NewPairingHandler(pairings *services.PairingService) *PairingHandler {
	return &PairingHandler{
		pairings: pairings,
	}
}

// GenerateRun executes a pairing run against the stored settings, with
// optional per-run overrides in the body. ?dry_run=true computes the result
// without persisting, caching, or notifying.
// POST /api/v1/pairings/runs
func (h *PairingHandler) GenerateRun(c *gin.Context) {
	var overrides *services.RunOverrides
	if c.Request.ContentLength > 0 {
		overrides = &services.RunOverrides{}
		if err := c.ShouldBindJSON(overrides); err != nil {
			utils.SendValidationError(c, "Invalid request body", err.Error())
			return
		}
	}

	dryRun := false
	if raw := c.Query("dry_run"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			utils.SendValidationError(c, "Invalid dry_run flag", err.Error())
			return
		}
		dryRun = parsed
	}

	run, result, err := h.pairings.GeneratePairings(c.Request.Context(), models.TriggerManual, overrides, dryRun)
	if err != nil {
		switch {
		case pairing.IsInfeasible(err):
			utils.SendUnprocessable(c, "Pairing constraints cannot be satisfied", err.Error())
		case errors.Is(err, pairing.ErrInvalidRequest), errors.Is(err, pairing.ErrInvalidConfig):
			utils.SendValidationError(c, "Invalid pairing configuration", err.Error())
		default:
			utils.SendInternalError(c, "Failed to generate pairings")
		}
		return
	}

	body := gin.H{"result": result}
	if run != nil {
		body["run_id"] = run.ID
		body["status"] = run.Status
	}
	utils.SendSuccess(c, body)
}

// ListRuns returns recent run summaries, newest first
// GET /api/v1/pairings/runs
func (h *PairingHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := h.pairings.ListRuns(limit)
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch runs")
		return
	}

	// History listings stay light; fetch a run by ID for the full payload
	for i := range runs {
		runs[i].Payload = nil
	}

	utils.SendSuccess(c, runs)
}

// GetLatestRun returns the most recent completed run with its payload
// GET /api/v1/pairings/runs/latest
func (h *PairingHandler) GetLatestRun(c *gin.Context) {
	run, err := h.pairings.LatestRun(c.Request.Context())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.SendNotFound(c, "No completed runs yet")
		} else {
			utils.SendInternalError(c, "Failed to fetch latest run")
		}
		return
	}

	utils.SendSuccess(c, run)
}

// GetRun returns one stored run with its payload
// GET /api/v1/pairings/runs/:id
func (h *PairingHandler) GetRun(c *gin.Context) {
	run, err := h.pairings.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.SendNotFound(c, "Run not found")
		} else {
			utils.SendInternalError(c, "Failed to fetch run")
		}
		return
	}

	utils.SendSuccess(c, run)
}
