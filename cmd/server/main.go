package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/miapp/redsocial/backend/internal/router"
	"github.com/miapp/redsocial/backend/pkg/config"
	"github.com/miapp/redsocial/backend/pkg/firebase"
	"github.com/miapp/redsocial/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Structured logger
	var logger *zap.Logger
	var err error
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Initialize Firebase
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e, cfg.AllowedOrigins)

	// Setup routes and dependencies
	watcher, err := router.SetupRoutes(e, cfg, db, firebaseApp, logger)
	if err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	// Consume store change events until shutdown
	go watcher.Run(ctx)

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
