// Package server contains the HTTP handlers for the account management API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"accountly/internal/config"
	"accountly/internal/database"
	"accountly/internal/middleware"
	"accountly/internal/models"
	"accountly/internal/notifications"
	"accountly/internal/repository"
	"accountly/internal/service"
	"accountly/internal/storage"

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
	userRepo       repository.UserRepository
	imageRepo      repository.ImageRepository
	tokenRepo      repository.TokenRepository
	notifier       *notifications.Notifier
	userService    *service.UserService
	verification   *service.VerificationService
	imageService   *service.ImageService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	redisClient := connectRedis(cfg.RedisURL)

	blobs, err := storage.NewS3Store(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("blob store setup failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, redisClient, blobs), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis/blob store.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, blobs storage.BlobStore) *Server {
	userRepo := repository.NewUserRepository(db)
	imageRepo := repository.NewImageRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	notifier := notifications.NewNotifier(redisClient)
	verification := service.NewVerificationService(userRepo, tokenRepo, cfg.VerifyTokenTTL)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("accountly"),
		userRepo:       userRepo,
		imageRepo:      imageRepo,
		tokenRepo:      tokenRepo,
		notifier:       notifier,
		userService:    service.NewUserService(userRepo, verification, notifier, cfg.BaseURL),
		verification:   verification,
		imageService:   service.NewImageService(imageRepo, blobs, cfg.ReplaceOnUpload()),
	}
}

// connectRedis builds a Redis client from an address or URL. The service runs
// without Redis; events and rate limiting degrade to no-ops.
func connectRedis(addr string) *redis.Client {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			middleware.Logger.Warn("invalid REDIS_URL, continuing without Redis",
				slog.String("url", addr), slog.String("error", err.Error()))
			return nil
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		middleware.Logger.Warn("Redis unavailable, continuing without it",
			slog.String("error", err.Error()))
		return nil
	}
	middleware.Logger.Info("Redis connected successfully")
	return client
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// Responses must never be cached by intermediaries.
	app.Use(noCache())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
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
	app.Get("/healthz", s.HealthCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	v1 := app.Group("/v1")

	v1.Post("/user", noQueryParams(), middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.CreateUser)

	// The verify endpoint is the one route that takes a query parameter.
	v1.Get("/user/verify", s.VerifyEmail)

	// Every self-service route requires valid credentials and a verified
	// account.
	self := v1.Group("/user/self", noQueryParams(), s.BasicAuthRequired(), s.VerifiedRequired())
	self.Get("/", s.GetSelf)
	self.Put("/", s.UpdateSelf)
	self.Post("/pic", s.UploadProfilePic)
	self.Get("/pic", s.GetProfilePic)
	self.Delete("/pic", s.DeleteProfilePic)
}

// HealthCheck handles GET /healthz. Query parameters and request bodies are
// rejected; otherwise the response reflects a metadata store liveness probe.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	if c.Context().QueryArgs().Len() > 0 {
		return c.SendStatus(fiber.StatusNotFound)
	}
	if len(c.Body()) > 0 {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	if err := s.db.WithContext(ctx).Exec("SELECT 1").Error; err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "health check database probe failed",
			slog.String("error", err.Error()))
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}
	return c.SendStatus(fiber.StatusOK)
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName:   "Accountly API",
		BodyLimit: 10 * 1024 * 1024, // 10MB upload limit
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
				slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
