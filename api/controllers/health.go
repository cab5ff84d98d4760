package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/famiglia/ops-console/api/responses"
	"github.com/famiglia/ops-console/pkg/config"
	pkgerrors "github.com/famiglia/ops-console/pkg/errors"
	"github.com/famiglia/ops-console/pkg/logger"
	"go.uber.org/multierr"
)

const readyTimeout = 3 * time.Second

// Pinger is any backing store that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyCheck names one dependency probed by the readiness endpoint.
type ReadyCheck struct {
	Name   string
	Pinger Pinger
}

const envHeader = "X-Ops-Console-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every check and answers 503 when any of them fails.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...ReadyCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		statuses := make(map[string]string, len(checks))
		var errs error
		for _, check := range checks {
			if check.Pinger == nil {
				continue
			}
			if err := check.Pinger.Ping(ctx); err != nil {
				statuses[check.Name] = "down"
				errs = multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeDependency, err, check.Name))
				continue
			}
			statuses[check.Name] = "up"
		}

		if errs != nil {
			err := pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "dependency check failed").
				WithDetails(map[string]any{"checks": statuses})
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": statuses})
	}
}
