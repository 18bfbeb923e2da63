package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/besterhub/kgc-league/internal/services"
	"github.com/besterhub/kgc-league/pkg/database"
)

type HealthHandler struct {
	db        *database.DB
	cache     *services.CacheService
	ratings   *services.RatingClient
	scheduler *services.SchedulerService
}

func NewHealthHandler(db *database.DB, cache *services.CacheService, ratings *services.RatingClient, scheduler *services.SchedulerService) *HealthHandler {
	return &HealthHandler{
		db:        db,
		cache:     cache,
		ratings:   ratings,
		scheduler: scheduler,
	}
}

// GetHealth returns service health including dependency status
// GET /health
func (h *HealthHandler) GetHealth(c *gin.Context) {
	components := gin.H{
		"cache": h.cache.Enabled(),
	}

	dbStatus := "up"
	if sqlDB, err := h.db.DB.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "down"
	}
	components["database"] = dbStatus

	if h.ratings != nil {
		components["rating_feed"] = h.ratings.BreakerState()
	}
	if h.scheduler != nil {
		components["scheduler"] = h.scheduler.Status()
	}

	status := http.StatusOK
	body := gin.H{
		"status":     "ok",
		"time":       time.Now().UTC(),
		"components": components,
	}
	if dbStatus == "down" {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
	}

	c.JSON(status, body)
}
