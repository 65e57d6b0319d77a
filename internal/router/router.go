package router

import (
	"log"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/miapp/redsocial/backend/internal/events"
	"github.com/miapp/redsocial/backend/internal/handlers"
	"github.com/miapp/redsocial/backend/internal/images"
	"github.com/miapp/redsocial/backend/internal/middleware"
	"github.com/miapp/redsocial/backend/internal/models"
	"github.com/miapp/redsocial/backend/internal/moderation"
	"github.com/miapp/redsocial/backend/internal/notifier"
	"github.com/miapp/redsocial/backend/internal/posts"
	"github.com/miapp/redsocial/backend/internal/push"
	"github.com/miapp/redsocial/backend/internal/repositories"
	"github.com/miapp/redsocial/backend/pkg/config"
	"github.com/miapp/redsocial/backend/pkg/firebase"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, allowedOrigins []string) {
	e.Use(eMiddleware.Logger())
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORSWithConfig(eMiddleware.CORSConfig{
		AllowOrigins: allowedOrigins,
	}))
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies.
// It returns the store-event watcher for the caller to run.
func SetupRoutes(e *echo.Echo, cfg *config.Config, db *config.DB, fb *firebase.App, logger *zap.Logger) (*events.Watcher, error) {
	// AutoMigrate PostgreSQL models
	if err := db.Postgres.AutoMigrate(
		&models.UserProfile{},
		&models.Contact{},
	); err != nil {
		return nil, err
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(db.Postgres)
	contactRepo := repositories.NewPostgresContactRepository(db.Postgres)
	postRepo := repositories.NewMongoPostRepository(db.Mongo.Database(cfg.MongoDatabase))

	// --- Core services ---
	moderator := moderation.DefaultConfig()
	dispatcher := push.NewDispatcher(fb.MessagingClient, logger)
	fanout := notifier.New(userRepo, dispatcher, logger)

	var imageStore posts.ImageStore
	if cfg.CloudinaryURL != "" {
		store, err := images.NewCloudinaryStore(cfg.CloudinaryURL, logger)
		if err != nil {
			return nil, err
		}
		imageStore = store
	}

	postService := posts.NewService(postRepo, moderator, imageStore, logger)

	// --- Function endpoints (unauthenticated, invoked directly) ---
	moderationHandler := handlers.NewModerationHandler(moderator)
	moderationHandler.RegisterModerationRoutes(e)

	pushHandler := handlers.NewPushHandler(userRepo, dispatcher, fanout, logger)
	pushHandler.RegisterPushRoutes(e)

	reactionHandler := handlers.NewReactionHandler(postService, fanout, logger)
	reactionHandler.RegisterReactionRoutes(e)
	log.Println("Function endpoints configured.")

	// --- Protected routes (require Firebase ID token) ---
	api := e.Group("/api/v1")
	api.Use(middleware.FirebaseAuthMiddleware(fb.AuthClient))
	log.Println("Firebase authentication middleware applied to /api/v1 group.")

	profileHandler := handlers.NewProfileHandler(userRepo)
	profileHandler.RegisterProfileRoutes(api)
	log.Println("Profile routes configured.")

	postHandler := handlers.NewPostHandler(postService, postRepo, userRepo)
	postHandler.RegisterPostRoutes(api)
	log.Println("Post routes configured.")

	contactHandler := handlers.NewContactHandler(contactRepo)
	contactHandler.RegisterContactRoutes(api)
	log.Println("Contact routes configured.")

	feedHandler := handlers.NewFeedHandler(postRepo, logger)
	feedHandler.RegisterFeedRoutes(api)
	log.Println("Feed routes configured.")

	// --- Store-triggered hooks ---
	watcher := events.NewWatcher(postRepo, events.PostHooks(postService, fanout, logger), logger)

	log.Println("All routes configured.")
	return watcher, nil
}
