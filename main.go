package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/drayishere/lead-capture/pkg/api"
	"github.com/drayishere/lead-capture/pkg/clients/klaviyo"
	"github.com/drayishere/lead-capture/pkg/config"
	"github.com/drayishere/lead-capture/pkg/logger"
	"github.com/drayishere/lead-capture/pkg/middleware"
	"github.com/drayishere/lead-capture/pkg/services"
)

func main() {
	log := logger.New()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file loaded")
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Initialize API clients
	klaviyoClient := klaviyo.NewClient(cfg.KlaviyoAPIKey, cfg.KlaviyoRevision)

	// Initialize services
	subscriptionService := services.NewSubscriptionService(klaviyoClient, cfg, log)

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	// Add CORS middleware; it also answers OPTIONS preflights
	router.Use(middleware.CORS(cfg.AllowedOrigin))

	// Non-POST methods on registered paths get an explicit 405
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	// Initialize handlers
	handlers := api.NewHandlers(subscriptionService, log)

	// Register routes
	router.POST("/subscribe", handlers.HandleSubscribe)
	router.GET("/health", handlers.HealthCheck)

	// Start the server
	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("error starting server")
	}
}
