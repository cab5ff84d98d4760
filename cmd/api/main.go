package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/famiglia/ops-console/api"
	"github.com/famiglia/ops-console/api/controllers"
	"github.com/famiglia/ops-console/api/routes"
	"github.com/famiglia/ops-console/internal/audit"
	"github.com/famiglia/ops-console/internal/auth"
	"github.com/famiglia/ops-console/internal/dashboard"
	"github.com/famiglia/ops-console/internal/orders"
	"github.com/famiglia/ops-console/internal/payments"
	"github.com/famiglia/ops-console/internal/users"
	"github.com/famiglia/ops-console/pkg/config"
	"github.com/famiglia/ops-console/pkg/db"
	"github.com/famiglia/ops-console/pkg/docstore"
	"github.com/famiglia/ops-console/pkg/logger"
	"github.com/famiglia/ops-console/pkg/metrics"
	"github.com/famiglia/ops-console/pkg/migrate"
	"github.com/famiglia/ops-console/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "ops-console"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "ops-console",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	loc, err := cfg.App.Location()
	if err != nil {
		return err
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	// The document store dials lazily on first use.
	mongoProvider := docstore.NewProvider(cfg.Mongo, logg)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = multierr.Append(err, mongoProvider.Close(closeCtx))
	}()

	var rateLimiter *redis.Client
	if cfg.Redis.Enabled() {
		rateLimiter, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, rateLimiter.Close()) }()
	} else {
		logg.Warn(ctx, "redis not configured, login rate limiting disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	userRepo := users.NewRepository(dbClient.DB())
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:  userRepo,
		JWTConfig: cfg.JWT,
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	auditRepo, err := audit.NewRepository(audit.ProviderSource(mongoProvider, cfg.Mongo.AuditCollection))
	if err != nil {
		return err
	}

	dashboardService, err := dashboard.NewService(dashboard.ServiceParams{
		Audit:      auditRepo,
		Orders:     orders.NewRepository(dbClient.DB()),
		Payments:   payments.NewRepository(dbClient.DB()),
		Users:      userRepo,
		Relational: dbClient,
		Documents:  mongoProvider,
		Location:   loc,
		Logger:     logg,
		Metrics:    metrics.NewWidgetMetrics(registry),
	})
	if err != nil {
		return err
	}

	deps := routes.Deps{
		Config:      cfg,
		Logger:      logg,
		Gatherer:    registry,
		AuthService: authService,
		Dashboard:   dashboardService,
		AuthMetrics: metrics.NewAuthMetrics(registry),
		ReadyChecks: []controllers.ReadyCheck{
			{Name: "postgres", Pinger: dbClient},
			{Name: "mongo", Pinger: mongoProvider},
		},
	}
	if rateLimiter != nil {
		deps.RateLimiter = rateLimiter
		deps.ReadyChecks = append(deps.ReadyChecks, controllers.ReadyCheck{Name: "redis", Pinger: rateLimiter})
	}

	server := api.NewServer(cfg.App, routes.NewRouter(deps))
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         server.Addr,
		"reporting_tz": loc.String(),
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
