package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/besterhub/kgc-league/internal/services"
	"github.com/besterhub/kgc-league/pkg/utils"
)

type RatingHandler struct {
	pairings *services.PairingService
}

func NewRatingHandler(pairings *services.PairingService) *RatingHandler {
	return &RatingHandler{
		pairings: pairings,
	}
}

// SyncRatings pulls the current feed from the rating engine into the roster
// POST /api/v1/ratings/sync
func (h *RatingHandler) SyncRatings(c *gin.Context) {
	summary, err := h.pairings.RefreshRatings(c.Request.Context())
	if err != nil {
		utils.SendInternalError(c, "Failed to sync ratings: "+err.Error())
		return
	}

	utils.SendSuccess(c, summary)
}
