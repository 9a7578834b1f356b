// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "fundboard/docs" // swagger docs
	"fundboard/internal/auth"
	"fundboard/internal/cache"
	"fundboard/internal/config"
	"fundboard/internal/database"
	"fundboard/internal/featureflags"
	"fundboard/internal/middleware"
	"fundboard/internal/models"
	"fundboard/internal/notifications"
	"fundboard/internal/repository"
	"fundboard/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
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
	userRepo       repository.UserRepository
	postRepo       repository.PostRepository
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	featureFlags   *featureflags.Manager

	authService     *service.AuthService
	profileService  *service.ProfileService
	postService     *service.PostService
	reactionService *service.ReactionService
	commentService  *service.CommentService
}

// NewServer connects the database and Redis described by cfg and builds a Server on them.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; cache, rate limits and cross-instance events are
// then disabled and realtime events stay local to this process.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	postRepo := repository.NewPostRepository(db)
	reactionRepo := repository.NewReactionRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL())

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("fundboard-api"),
		userRepo:       userRepo,
		postRepo:       postRepo,
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		hub:            notifications.NewHub(),

		authService:     service.NewAuthService(userRepo, sessionRepo, tokens),
		profileService:  service.NewProfileService(profileRepo),
		postService:     service.NewPostService(postRepo),
		reactionService: service.NewReactionService(postRepo, reactionRepo),
		commentService:  service.NewCommentService(commentRepo, postRepo),
	}

	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
	}

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Propagate request, trace and user IDs into the request context
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: !strings.Contains(origins, "*"),
		MaxAge:           86400,
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
			middleware.RateLimited.WithLabelValues("global").Inc()
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	authRequired := s.AuthRequired()

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Fundboard API Metrics",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)
	api.Get("/features", s.GetFeatureFlags)

	// Accounts
	accounts := api.Group("/auth")
	accounts.Post("/register", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "register"), s.Register)
	accounts.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	accounts.Post("/logout", authRequired, s.Logout)
	accounts.Post("/logoutall", authRequired, s.LogoutAll)
	accounts.Get("/user", authRequired, s.CurrentUser)

	profiles := api.Group("/profile", authRequired)
	profiles.Get("/", s.ListProfiles)
	profiles.Post("/", s.CreateProfile)
	profiles.Get("/me", s.GetMyProfile)
	profiles.Get("/:id", s.GetProfile)
	profiles.Put("/:id", s.UpdateProfile)
	profiles.Patch("/:id", s.PatchProfile)
	profiles.Delete("/:id", s.DeleteProfile)

	// Literal paths are registered before /:id so they are not captured by it.
	posts := api.Group("/posts")
	posts.Get("/", s.ListPosts)
	posts.Post("/", authRequired, s.CreatePost)
	posts.Get("/search", middleware.RateLimit(
		s.redis, 30, time.Minute, "search"), s.SearchPosts)
	posts.Get("/active", authRequired, s.ListActivePosts)
	posts.Get("/disabled", authRequired, s.ListDisabledPosts)

	posts.Get("/:id/likecount", s.LikeCount)
	posts.Get("/:id/userpostlike", authRequired, s.UserPostLike)
	posts.Post("/:id/like", authRequired, s.LikePost)
	posts.Post("/:id/removelike", authRequired, s.RemoveLike)
	posts.Post("/:id/dislike", authRequired, s.DislikePost)
	posts.Post("/:id/removedislike", authRequired, s.RemoveDislike)
	posts.Get("/:id/comment", s.ListComments)
	posts.Post("/:id/comment", authRequired, middleware.RateLimit(
		s.redis, 10, time.Minute, "comment"), s.CreateComment)
	posts.Post("/:id/disablecomment", authRequired, s.DisableComment)
	posts.Post("/:id/toggle", authRequired, s.TogglePost)

	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", authRequired, s.UpdatePost)
	posts.Patch("/:id", authRequired, s.PatchPost)
	posts.Delete("/:id", authRequired, s.DeletePost)

	api.Get("/ws", authRequired, s.requireRealtime, s.WebsocketHandler())
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Fundboard API",
		BodyLimit: 1 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether the database and, when configured, Redis answer.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
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

// AuthRequired rejects requests without a live session token. The token is
// read from the Authorization header ("Bearer <t>" or "Token <t>"); websocket
// upgrades may pass it as ?token= since browsers cannot set headers there.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" && strings.HasPrefix(c.Path(), "/api/ws") {
			token = c.Query("token")
		}
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication credentials were not provided."))
		}

		principal, err := s.authService.Authenticate(c.UserContext(), token)
		if err != nil {
			return s.respondErr(c, err)
		}

		s.setPrincipal(c, principal)
		return c.Next()
	}
}

func (s *Server) setPrincipal(c *fiber.Ctx, principal *service.Principal) {
	c.Locals("userID", principal.User.ID)
	c.Locals("principal", principal)
	// Sync to UserContext for logging and downstream services
	ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, principal.User.ID)
	c.SetUserContext(ctx)
}

// optionalUserID resolves the caller on public routes. A missing or invalid
// token means an anonymous caller, never an error.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	if uid, ok := c.Locals("userID").(uint); ok {
		return uid, true
	}
	token := bearerToken(c)
	if token == "" {
		return 0, false
	}
	principal, err := s.authService.Authenticate(c.UserContext(), token)
	if err != nil {
		return 0, false
	}
	s.setPrincipal(c, principal)
	return principal.User.ID, true
}

func bearerToken(c *fiber.Ctx) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(c.Get(fiber.HeaderAuthorization)), " ")
	if !ok {
		return ""
	}
	switch strings.ToLower(scheme) {
	case "bearer", "token":
		return strings.TrimSpace(token)
	}
	return ""
}

// Start builds the app, wires the realtime hub and blocks serving HTTP.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.NewApp()

	if s.notifier != nil {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			middleware.Logger.Error("failed to start event hub wiring",
				slog.String("hub", s.hub.Name()), slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the subscriber goroutine
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down hub", slog.String("error", err.Error()))
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

	middleware.Logger.Info("server shutdown complete")
	return nil
}
