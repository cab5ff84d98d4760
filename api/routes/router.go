package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/famiglia/ops-console/api/controllers"
	"github.com/famiglia/ops-console/api/middleware"
	"github.com/famiglia/ops-console/internal/auth"
	"github.com/famiglia/ops-console/pkg/config"
	"github.com/famiglia/ops-console/pkg/logger"
	"github.com/famiglia/ops-console/pkg/metrics"
)

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Gatherer    prometheus.Gatherer
	AuthService auth.Service
	Dashboard   controllers.DashboardService
	AuthMetrics *metrics.AuthMetrics
	// RateLimiter is nil when no Redis is configured; login is then unthrottled.
	RateLimiter rateLimiter
	ReadyChecks []controllers.ReadyCheck
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.SecureHeaders(cfg.App.IsDev()),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	loginPath := cfg.App.LoginPath
	secureCookies := cfg.App.SecureCookies()

	r.Get("/", middleware.RootRedirect(loginPath))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.ReadyChecks...))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/auth", func(r chi.Router) {
		login := controllers.AuthLogin(deps.AuthService, secureCookies, deps.AuthMetrics, logg)
		if deps.RateLimiter != nil {
			r.With(middleware.AuthRateLimit(loginPolicy, deps.RateLimiter, logg)).Post("/login", login)
		} else {
			r.Post("/login", login)
		}
		r.Post("/logout", controllers.AuthLogout(secureCookies))
	})

	r.Route(middleware.DashboardPath, func(r chi.Router) {
		r.Use(middleware.Gate(cfg.JWT, loginPath, deps.AuthMetrics, logg))
		r.Get("/", controllers.DashboardOverview(deps.Dashboard))
		r.Get("/sales", controllers.DashboardSales(deps.Dashboard))
		r.Get("/anonymous", controllers.DashboardAnonymous(deps.Dashboard))
		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.DashboardUsers(deps.Dashboard))
			r.Get("/{userId}", controllers.DashboardUserDetail(deps.Dashboard, logg))
		})
		r.Get("/settings", controllers.DashboardSettings(deps.Dashboard))
	})

	return r
}
