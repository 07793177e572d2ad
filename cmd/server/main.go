package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/Ivgeniay/formflow/internal/config"
	"github.com/Ivgeniay/formflow/internal/database"
	"github.com/Ivgeniay/formflow/internal/handlers"
	"github.com/Ivgeniay/formflow/internal/hub"
	"github.com/Ivgeniay/formflow/internal/logging"
	"github.com/Ivgeniay/formflow/internal/middleware"
	"github.com/Ivgeniay/formflow/internal/notify"
	"github.com/Ivgeniay/formflow/internal/revocation"
	"github.com/Ivgeniay/formflow/internal/routes"
	"github.com/Ivgeniay/formflow/internal/search"
	"github.com/Ivgeniay/formflow/internal/services"
	"github.com/Ivgeniay/formflow/internal/tasks"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Revocation store: Redis when configured, in-process otherwise
	var revocations revocation.Store
	var memStore *revocation.MemoryStore
	if cfg.RedisAddr != "" {
		if client := revocation.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); client != nil {
			revocations = revocation.NewRedisStore(client)
			slog.Info("revocation store: redis", "addr", cfg.RedisAddr)
		}
	}
	if revocations == nil {
		memStore = revocation.NewMemoryStore()
		revocations = memStore
		slog.Info("revocation store: in-memory")
	}

	// Mailer: SendGrid when configured, console otherwise
	var mailer notify.Mailer
	if cfg.SendGridAPIKey != "" {
		mailer = notify.NewSendGridMailer(cfg.SendGridAPIKey, cfg.AppName, cfg.MailFrom)
	} else {
		mailer = notify.ConsoleMailer{}
		slog.Info("no SENDGRID_API_KEY, mail goes to the log")
	}

	// Background task queue for search indexing and notifications
	queue := tasks.NewQueue(cfg.TaskQueueSize)

	// Services
	index := search.NewSQLIndex(database.DB)
	authService := services.NewAuthService(database.DB, cfg, revocations)
	apiTokenService := services.NewApiTokenService(database.DB)
	tagService := services.NewTagService(database.DB)
	templateService := services.NewTemplateService(database.DB, tagService, index, queue)
	formService := services.NewFormService(database.DB, templateService, mailer, queue)
	commentService := services.NewCommentService(database.DB, templateService)
	likeService := services.NewLikeService(database.DB, templateService)
	topicService := services.NewTopicService(database.DB)
	settingsService := services.NewSettingsService(database.DB)
	userService := services.NewUserService(database.DB, authService)

	if err := settingsService.SeedDefaults(); err != nil {
		slog.Error("settings seed failed", "error", err)
		os.Exit(1)
	}

	activityHub := hub.New(templateService, commentService, likeService)

	h := routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService),
		Health:   handlers.NewHealthHandler(),
		Template: handlers.NewTemplateHandler(templateService),
		Form:     handlers.NewFormHandler(formService),
		Tag:      handlers.NewTagHandler(tagService),
		Topic:    handlers.NewTopicHandler(topicService),
		User:     handlers.NewUserHandler(userService, settingsService),
		Admin:    handlers.NewAdminHandler(userService, templateService, tagService, settingsService),
		Social:   handlers.NewSocialHandler(commentService, likeService),
		Search:   handlers.NewSearchHandler(index),
		ApiToken: handlers.NewApiTokenHandler(apiTokenService),
	}

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routes.Setup(app, cfg, database.DB, h, activityHub, apiTokenService, revocations)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	// In-flight requests may still enqueue side effects; stop accepting
	// traffic before draining the queue.
	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	queue.Close()
	close(cleanupDone)
	pgLogHandler.Stop()
	if memStore != nil {
		memStore.Stop()
	}
	sentry.Flush(2 * time.Second)

	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
