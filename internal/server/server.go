// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"log"
	"time"

	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/featureflags"
	"quill/internal/identity"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/notifications"
	"quill/internal/repository"
	"quill/internal/service"
	"quill/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	articleRepo repository.ArticleRepository
	commentRepo repository.CommentRepository
	profileRepo repository.ProfileRepository

	provider     identity.Provider
	bus          *notifications.Bus
	featureFlags *featureflags.Manager

	sessionService *service.SessionService
	articleService *service.ArticleService
	commentService *service.CommentService
	profileService *service.ProfileService
	mediaService   *service.MediaService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	provider, err := identity.NewKratosProvider(cfg, middleware.Logger)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewDiskStore(cfg.MediaDir, cfg.MediaBaseURL)
	if err != nil {
		return nil, err
	}

	return NewServerWithDeps(cfg, db, redisClient, provider, store)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use it to swap in sqlite, miniredis, or a stub identity provider.
func NewServerWithDeps(
	cfg *config.Config,
	db *gorm.DB,
	redisClient *redis.Client,
	provider identity.Provider,
	store storage.BlobStore,
) (*Server, error) {
	articleRepo := repository.NewArticleRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	bus := notifications.NewBus(notifications.NewNotifier(redisClient))

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("quill-api"),
		articleRepo:    articleRepo,
		commentRepo:    commentRepo,
		profileRepo:    profileRepo,
		provider:       provider,
		bus:            bus,
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	server.sessionService = service.NewSessionService(provider, profileRepo)
	server.articleService = service.NewArticleService(articleRepo, profileRepo, bus)
	server.commentService = service.NewCommentService(commentRepo, articleRepo, profileRepo)
	server.profileService = service.NewProfileService(profileRepo, provider)
	server.mediaService = service.NewMediaService(store, cfg.MediaMaxSizeMB)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User UID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Uploaded media
	app.Static("/media", s.config.MediaDir)

	// Auth routes. Credential endpoints get tighter Redis-backed limits on
	// top of the global limiter.
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 5, time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, time.Minute, "login"), s.Login)
	auth.Post("/provider", middleware.RateLimit(s.redis, 10, time.Minute, "provider_login"), s.LoginWithProvider)
	auth.Post("/logout", middleware.AuthRequired, s.Logout)
	auth.Post("/password-reset", middleware.RateLimit(s.redis, 3, time.Minute, "password_reset"), s.SendPasswordReset)
	auth.Post("/password-reset/confirm", s.ConfirmPasswordReset)

	// Public article routes
	articles := api.Group("/articles")
	articles.Get("/", s.ListArticles)
	articles.Get("/:id/comments", s.ListComments)
	articles.Get("/:id", s.GetArticle)

	// Protected routes
	articles.Post("/", middleware.AuthRequired, s.CreateArticle)
	articles.Put("/:id", middleware.AuthRequired, s.UpdateArticle)
	articles.Delete("/:id", middleware.AuthRequired, s.DeleteArticle)
	articles.Post("/:id/comments", middleware.AuthRequired,
		middleware.RateLimit(s.redis, 15, time.Minute, "create_comment"), s.CreateComment)

	users := api.Group("/users", middleware.AuthRequired)
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Post("/me/promotion", s.RequestPromotion)
	users.Post("/:uid/promote", s.ApplyPromotion)

	api.Post("/media", middleware.AuthRequired,
		middleware.RateLimit(s.redis, 20, time.Minute, "upload_media"), s.UploadMedia)

	// Websocket notification stream
	app.Get("/ws/notifications", middleware.WebSocketAuthRequired, s.NotificationsHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis is optional; notifications degrade to in-process delivery.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	// Leave headroom over the media size cap for multipart framing.
	bodyLimit := (s.config.MediaMaxSizeMB + 2) * 1024 * 1024

	app := fiber.New(fiber.Config{
		AppName:   "Quill API",
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewUnknownError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Fan notifications in from Redis if available
	if err := s.bus.StartWiring(s.shutdownCtx); err != nil {
		log.Printf("failed to start notification wiring: %v", err)
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	// Close notification subscribers
	s.bus.Shutdown()

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
