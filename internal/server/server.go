// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "atelier/docs" // swagger docs
	"atelier/internal/cache"
	"atelier/internal/config"
	"atelier/internal/middleware"
	"atelier/internal/models"
	"atelier/internal/notifications"
	"atelier/internal/repository"
	"atelier/internal/service"
	"atelier/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	promOnce sync.Once
	promMW   *fiberprometheus.FiberPrometheus
)

// httpMetrics returns the process-wide request metrics middleware. The
// collectors live in the default registry and may only be registered once.
func httpMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promMW = fiberprometheus.New(serviceName)
	})
	return promMW
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	blobs          storage.BlobStore
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	auth     *middleware.Authenticator
	limiter  *middleware.RateLimiter
	notifier *notifications.Notifier
	hub      *notifications.Hub
	tickets  *notifications.TicketStore

	accountService    *service.AccountService
	profileService    *service.ProfileService
	engagementService *service.EngagementService
	postService       *service.PostService
	feedService       *service.FeedService
	ledgerService     *service.LedgerService
	projectService    *service.ProjectService
	messageService    *service.MessageService
	searchService     *service.SearchService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil redis client disables caching, notifications, websocket tickets and
// rate limiting; blobs may be nil when uploads are not needed.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, blobs storage.BlobStore) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server requires a config and a database")
	}

	accountRepo := repository.NewAccountRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	fundingRepo := repository.NewFundingRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		blobs:          blobs,
		promMiddleware: httpMetrics(serviceName(cfg)),
		auth:           middleware.NewAuthenticator(cfg),
		limiter:        middleware.NewRateLimiter(redisClient, cfg.Env, middleware.FailOpen),
	}

	var events service.EventPublisher
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		s.hub = notifications.NewHub()
		s.tickets = notifications.NewTicketStore(redisClient, notifications.DefaultTicketTTL)
		events = s.notifier
	}

	var media *service.MediaService
	if blobs != nil {
		media = service.NewMediaService(blobs, cfg)
	}

	statsTTL := service.DefaultProfileStatsTTL
	if cfg.ProfileStatsTTLSeconds > 0 {
		statsTTL = time.Duration(cfg.ProfileStatsTTLSeconds) * time.Second
	}

	s.accountService = service.NewAccountService(accountRepo)
	s.profileService = service.NewProfileService(accountRepo, followRepo, cache.NewStore(redisClient), statsTTL, media, events)
	s.engagementService = service.NewEngagementService(postRepo, engagementRepo, events)
	s.postService = service.NewPostService(postRepo, s.engagementService, media, s.profileService)
	s.feedService = service.NewFeedService(postRepo, followRepo)
	s.ledgerService = service.NewLedgerService(projectRepo, fundingRepo, accountRepo, events)
	s.projectService = service.NewProjectService(projectRepo, accountRepo, s.ledgerService, media)
	s.messageService = service.NewMessageService(messageRepo, accountRepo, events)
	s.searchService = service.NewSearchService(accountRepo, projectRepo)

	return s, nil
}

func serviceName(cfg *config.Config) string {
	if cfg.ServiceName != "" {
		return cfg.ServiceName
	}
	return "atelier-api"
}

// App builds the Fiber application with middleware and routes. It is used by
// Start and by handler tests.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	// Room for the largest accepted image plus multipart overhead.
	bodyLimit := (positiveOr(s.config.ImageMaxUploadSizeMB, service.DefaultImageMaxUploadSizeMB) + 1) * 1024 * 1024

	app := fiber.New(fiber.Config{
		AppName:      "Atelier API",
		BodyLimit:    bodyLimit,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())

	// Tracing first so the request context carries the trace id
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New(helmet.Config{
		// swagger UI and media are served from this origin
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses
	// still carry the headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global per-IP budget (in-memory). Redis-backed budgets guard the
	// expensive endpoints individually.
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
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
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	if local, ok := s.blobs.(*storage.LocalStore); ok {
		app.Static("/media", local.Root(), fiber.Static{MaxAge: 3600})
	}

	api := app.Group("/api/v1")
	api.Get("/", s.HealthCheck)
	api.Get("/swagger/*", swagger.HandlerDefault)

	required := s.auth.Required()
	optional := s.auth.Optional()

	window := time.Duration(s.config.RateLimitSeconds) * time.Second
	if window <= 0 {
		window = time.Minute
	}
	authLimit := positiveOr(s.config.AuthRateLimit, 10)
	writeLimit := positiveOr(s.config.WriteRateLimit, 30)
	uploadLimit := s.limiter.Limit("upload", writeLimit, window)

	// Auth
	auth := api.Group("/auth")
	auth.Post("/register", s.limiter.Limit("register", authLimit, window), s.Register)
	auth.Post("/login", s.limiter.Limit("login", authLimit, window), s.Login)
	auth.Get("/me", required, s.Me)

	api.Get("/search", s.Search)

	// Profiles and follows
	profiles := api.Group("/profiles")
	profiles.Patch("/me", required, uploadLimit, s.UpdateMyProfile)
	profiles.Get("/:username/followers", s.GetFollowers)
	profiles.Get("/:username/following", s.GetFollowing)
	profiles.Get("/:username/wall", optional, s.GetProfileWall)
	profiles.Get("/:username/projects", s.GetProfileProjects)
	profiles.Post("/:username/follow", required, s.Follow)
	profiles.Delete("/:username/follow", required, s.Unfollow)
	profiles.Get("/:username", optional, s.GetProfile)

	// Feeds
	feed := api.Group("/feed")
	feed.Get("/", required, s.GetHomeFeed)
	feed.Get("/global", optional, s.GetGlobalFeed)

	// Posts, likes and comments. :kind is "post" (image) or "verbal" (text).
	posts := api.Group("/posts")
	posts.Post("/text", required, s.limiter.Limit("create_post", writeLimit, window), s.CreateTextPost)
	posts.Post("/image", required, uploadLimit, s.CreateImagePost)
	posts.Post("/:kind/:id/like", required, s.ToggleLike)
	posts.Get("/:kind/:id/comments", s.GetComments)
	posts.Post("/:kind/:id/comments", required, s.limiter.Limit("create_comment", writeLimit, window), s.CreateComment)
	posts.Get("/:kind/:id", optional, s.GetPost)
	posts.Patch("/:kind/:id", required, s.UpdatePost)
	posts.Delete("/:kind/:id", required, s.DeletePost)
	api.Delete("/comments/:id", required, s.DeleteComment)

	// Direct messages
	messages := api.Group("/messages", required)
	messages.Get("/inbox", s.GetInbox)
	messages.Get("/outbox", s.GetOutbox)
	messages.Get("/unread-count", s.GetUnreadCount)
	messages.Get("/recipients", s.SuggestRecipients)
	messages.Post("/", s.limiter.Limit("send_message", writeLimit, window), s.SendMessage)
	messages.Post("/:id/reply", s.limiter.Limit("send_message", writeLimit, window), s.ReplyToMessage)
	messages.Get("/:id", s.GetMessage)

	// Projects, calendars and funding
	projects := api.Group("/projects")
	projects.Get("/", s.GetProjects)
	projects.Post("/", required, s.CreateProject)
	projects.Get("/:id/funding", s.GetFunding)
	projects.Post("/:id/funding/support", optional, s.limiter.Limit("support", writeLimit, window), s.SupportProject)
	projects.Post("/:id/funding/budget-items", required, s.AddBudgetItem)
	projects.Put("/:id/funding/goal", required, s.SetFundingGoal)
	projects.Put("/:id/status", required, s.UpdateProjectStatus)
	projects.Put("/:id/cover", required, uploadLimit, s.UploadProjectCover)
	projects.Post("/:id/collaborators", required, s.AddCollaborator)
	projects.Delete("/:id/collaborators/:username", required, s.RemoveCollaborator)
	projects.Post("/:id/manifestations", required, s.AddManifestation)
	projects.Post("/:id/photos", required, uploadLimit, s.AddProjectPhoto)
	projects.Put("/:id/calendar/:date", required, s.SetCalendarEntry)
	projects.Delete("/:id/calendar/:date", required, s.DeleteCalendarEntry)
	projects.Get("/:id", optional, s.GetProject)
	projects.Patch("/:id", required, s.UpdateProject)
	projects.Delete("/:id", required, s.DeleteProject)

	// Websocket notifications: a ticket is issued over the authenticated API
	// and redeemed on upgrade.
	api.Post("/ws/ticket", required, s.IssueWSTicket)
	app.Get("/ws/notifications", s.TicketRequired(), s.NotificationsWebSocket())
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// HealthCheck is a simple alias for ReadinessCheck
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
}

// LivenessCheck handles liveness check requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness check requests. Redis is optional: the
// API degrades without it, so only the database decides readiness.
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

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	} else if redisStatus != "healthy" {
		overall = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
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

	app := s.App()

	if s.notifier != nil && s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("notification hub wiring failed", slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port), slog.String("env", s.config.Env))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	var errs []error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}
	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("notification hub: %w", err))
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			errs = append(errs, fmt.Errorf("database: %w", cerr))
		}
	}
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			errs = append(errs, fmt.Errorf("redis: %w", rerr))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return errors.Join(errs...)
}
