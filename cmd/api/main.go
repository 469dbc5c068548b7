package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"outfitted/docs"
	"outfitted/internal/config"
	"outfitted/internal/database"
	"outfitted/internal/database/migration"
	handlers "outfitted/internal/http/handler"
	"outfitted/internal/http/middleware"
	"outfitted/internal/logger"
	"outfitted/internal/model"
	"outfitted/internal/otel"
	"outfitted/internal/repository/postgres"
	"outfitted/internal/service"
	"outfitted/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title Outfitted API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey TokenAuth
// @in header
// @name Authorization
// @description Token <key>
func main() {
	cfg := config.Load()
	log := logger.NewStdout(cfg.Location(), cfg.LogLevel)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("api stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	objStore, err := storage.NewMinIO(ctx, cfg.MinIO, log)
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}

	userRepo := postgres.NewUserPostgres(db)
	tokenRepo := postgres.NewTokenPostgres(db)
	tagRepo := postgres.NewAttributePostgres(db, model.KindTag)
	itemRepo := postgres.NewAttributePostgres(db, model.KindItem)
	postRepo := postgres.NewPostPostgres(db)

	svc := handlers.Services{
		Users: service.NewUserService(userRepo, tokenRepo),
		Tags:  service.NewAttributeService(model.KindTag, tagRepo),
		Items: service.NewAttributeService(model.KindItem, itemRepo),
		Posts: service.NewPostService(postRepo, itemRepo, tagRepo, objStore, service.ImageOptions{
			MaxBytes:      cfg.Upload.MaxImageBytes,
			PresignExpiry: cfg.Upload.PresignExpiry(),
		}, log),
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             int(cfg.Upload.MaxImageBytes) + 1<<20,
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, db, svc)

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

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info("http server listening", zap.String("addr", addr))
		return app.Listen(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return errors.Join(
			app.ShutdownWithContext(sctx),
			shutdownTracing(sctx),
		)
	})

	return g.Wait()
}
