package main

import (
	"context"
	"database/sql"
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
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"puttr/docs"
	"puttr/internal/config"
	"puttr/internal/database"
	"puttr/internal/database/migration"
	handlers "puttr/internal/http/handler"
	"puttr/internal/http/middleware"
	"puttr/internal/logger"
	"puttr/internal/otel"
	"puttr/internal/repository/postgres"
	"puttr/internal/service"
	"puttr/internal/storage"
	"puttr/internal/token"
)

const shutdownTimeout = 10 * time.Second

// @title puttr
// @version 1.0
// @description Token-gated content uploads stored as timestamped files.
// @BasePath /
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "puttr: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("puttr", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to a TOML config file (environment variables take precedence)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	// Configuration: defaults, then the optional file, then the environment
	// (.env auto-loaded if present).
	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return fmt.Errorf("load time zone %q: %w", cfg.TimeZone, err)
	}

	log, err := logger.New(cfg.Log, loc)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, "puttr", log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	store, err := newStorage(cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tokens := token.New(token.WithTTL(cfg.TokenTTL))
	metrics, err := service.NewMetrics(reg, tokens)
	if err != nil {
		return fmt.Errorf("register service metrics: %w", err)
	}
	opts := []service.Option{service.WithMetrics(metrics)}

	// The ledger is optional; without a database host uploads are only written
	// to the storage backend.
	var db *sql.DB
	if cfg.Database.Enabled() {
		db, err = database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		if err := migration.EnsureMigrated(ctx, db, log); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		opts = append(opts, service.WithLedger(postgres.NewUploadPostgres(db)))
	}

	uploadSvc := service.NewUploadService(tokens, store, opts...)

	promMw, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             cfg.MaxBodyBytes,
		DisableStartupMessage: true,
	})

	// RequestID first so every later middleware and handler can read it.
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Logger(log))
	app.Use(promMw.Handler())

	handlers.RegisterRoutes(app, uploadSvc, log, handlers.RouteOptions{
		AppHost:            cfg.AppHost,
		TokenRatePerMinute: cfg.TokenRatePerMinute,
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

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
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(addr)
	}()

	log.Info("server_started",
		zap.String("addr", addr),
		zap.String("storage_backend", cfg.StorageBackend),
		zap.Bool("ledger_enabled", db != nil),
		zap.Duration("token_ttl", tokens.TTL()),
	)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("server_shutdown_failed", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing_shutdown_failed", zap.Error(err))
	}
	return nil
}

func newStorage(cfg *config.AppConfig) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case config.BackendS3:
		// Reusable S3-compatible client (MinIO-supported)
		return storage.NewMinIO(cfg.MinIO)
	default:
		return storage.NewLocal(cfg.UploadDir), nil
	}
}
