package api

import (
	"github.com/gin-gonic/gin"

	"github.com/besterhub/kgc-league/internal/api/handlers"
	"github.com/besterhub/kgc-league/internal/api/middleware"
	"github.com/besterhub/kgc-league/internal/services"
	"github.com/besterhub/kgc-league/pkg/config"
	"github.com/besterhub/kgc-league/pkg/database"
)

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(group *gin.RouterGroup, db *database.DB, cache *services.CacheService, pairings *services.PairingService, cfg *config.Config) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg)
	playerHandler := handlers.NewPlayerHandler(db, cache)
	settingsHandler := handlers.NewSettingsHandler(db, cache)
	pairingHandler := handlers.NewPairingHandler(pairings)
	ratingHandler := handlers.NewRatingHandler(pairings)

	// Auth
	group.POST("/auth/token", authHandler.IssueToken)

	// Public read endpoints; a valid token still attributes the request in
	// the logs
	public := group.Group("")
	public.Use(middleware.OptionalAuth(cfg.JWTSecret))
	{
		public.GET("/players", playerHandler.ListPlayers)
		public.GET("/players/:id", playerHandler.GetPlayer)
		public.GET("/settings", settingsHandler.GetSettings)
		public.GET("/pairings/runs", pairingHandler.ListRuns)
		public.GET("/pairings/runs/latest", pairingHandler.GetLatestRun)
		public.GET("/pairings/runs/:id", pairingHandler.GetRun)
	}

	// Admin endpoints
	auth := group.Group("")
	auth.Use(middleware.AuthRequired(cfg.JWTSecret))
	{
		auth.POST("/players", playerHandler.CreatePlayer)
		auth.PUT("/players/:id", playerHandler.UpdatePlayer)
		auth.DELETE("/players/:id", playerHandler.DeletePlayer)

		auth.PUT("/settings", settingsHandler.UpdateSettings)

		auth.POST("/pairings/runs", pairingHandler.GenerateRun)

		auth.POST("/ratings/sync", ratingHandler.SyncRatings)
	}
}
