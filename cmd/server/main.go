package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/besterhub/kgc-league/internal/api"
	"github.com/besterhub/kgc-league/internal/api/handlers"
	"github.com/besterhub/kgc-league/internal/api/middleware"
	"github.com/besterhub/kgc-league/internal/models"
	"github.com/besterhub/kgc-league/internal/services"
	"github.com/besterhub/kgc-league/pkg/config"
	"github.com/besterhub/kgc-league/pkg/database"
	"github.com/besterhub/kgc-league/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	log := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(&models.Player{}, &models.LeagueSettings{}, &models.PairingRun{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Connect to Redis when configured; the cache degrades to a no-op
	// without it
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opt)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Warnf("Redis unavailable, running without cache: %v", err)
			redisClient.Close()
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// Initialize services
	cacheService := services.NewCacheService(redisClient)

	var ratingClient *services.RatingClient
	if cfg.RatingServiceURL != "" {
		ratingClient = services.NewRatingClient(
			cfg.RatingServiceURL,
			cfg.RatingRateLimit,
			cfg.ExternalAPITimeout,
			cfg.CircuitBreakerThreshold,
			cacheService,
			log,
		)
	}

	smsService := services.NewSMSServiceFromConfig(cfg, log)
	notifier := services.NewNotificationService(db, smsService, log)
	pairingService := services.NewPairingService(db, cacheService, ratingClient, notifier, cfg, log)

	var scheduler *services.SchedulerService
	if cfg.EnableScheduler {
		scheduler = services.NewSchedulerService(pairingService, cfg.GenerationSchedule, log)
		if err := scheduler.Start(); err != nil {
			log.Errorf("Failed to start scheduler: %v", err)
		} else {
			defer scheduler.Stop()
		}
	}

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORS(cfg.CorsOrigins))

	// Health check endpoint
	healthHandler := handlers.NewHealthHandler(db, cacheService, ratingClient, scheduler)
	router.GET("/health", healthHandler.GetHealth)

	// Setup API routes under /api/v1
	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(apiV1, db, cacheService, pairingService, cfg)

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
