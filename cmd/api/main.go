package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"enrollapi/docs"
	"enrollapi/internal/config"
	"enrollapi/internal/database"
	"enrollapi/internal/database/migration"
	handlers "enrollapi/internal/http/handler"
	"enrollapi/internal/http/middleware"
	"enrollapi/internal/otel"
	"enrollapi/internal/repository/postgres"
	"enrollapi/internal/service"
	"enrollapi/internal/storage"
)

// @title Enrollment API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	loc := time.UTC

	// Initialize tracing; degrades to noop when the exporter is unreachable
	shutdown, err := otel.Init(context.Background(), loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(ctx)
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	// Bootstrap the schema on first run
	if err := migration.EnsureMigrated(context.Background(), db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Initialize repositories and services
	enrollRepo := postgres.NewEnrollmentPostgres(db)
	subRepo := postgres.NewSubscriptionPostgres(db)
	answerRepo := postgres.NewAnswerPostgres(db)
	scopeSubRepo := postgres.NewScopeSubscriptionPostgres(db)
	docRepo := postgres.NewDocumentPostgres(db)
	msgRepo := postgres.NewMessagePostgres(db)
	roleRepo := postgres.NewRolePostgres(db)

	enrollSvc := service.NewEnrollmentService(enrollRepo, msgRepo)
	subSvc := service.NewSubscriptionService(enrollRepo, subRepo, answerRepo, scopeSubRepo, docRepo, msgRepo, roleRepo, objStore)
	msgSvc := service.NewMessageService(msgRepo, roleRepo)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	// Caller identity from trusted upstream headers
	app.Use(middleware.Identity())
	// Request tracing
	app.Use(otelfiber.Middleware())

	// Request counter + /metrics endpoint
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	promMW, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		log.Fatalf("failed to register prometheus metrics: %v", err)
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, enrollSvc, subSvc, msgSvc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
