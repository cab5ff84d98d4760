package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/famiglia/ops-console/api/responses"
	"github.com/famiglia/ops-console/api/validators"
	"github.com/famiglia/ops-console/internal/auth"
	pkgAuth "github.com/famiglia/ops-console/pkg/auth"
	pkgerrors "github.com/famiglia/ops-console/pkg/errors"
	"github.com/famiglia/ops-console/pkg/logger"
	"github.com/famiglia/ops-console/pkg/metrics"
)

type loginResponse struct {
	Success bool `json:"success"`
}

// AuthLogin verifies credentials and sets the admin_token cookie. The token
// itself is never written to the body.
func AuthLogin(svc auth.Service, secureCookies bool, authMetrics *metrics.AuthMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			authMetrics.IncLogin(loginOutcome(err))
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			authMetrics.IncLogin(loginOutcome(err))
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		http.SetCookie(w, pkgAuth.SessionCookie(result.AccessToken, secureCookies))
		authMetrics.IncLogin("success")
		if logg != nil && result.User != nil {
			ctx := logg.WithUserID(r.Context(), strconv.FormatInt(result.User.ID, 10))
			logg.Info(ctx, "auth.login.success")
		}
		responses.WriteSuccess(w, loginResponse{Success: true})
	}
}

// AuthLogout clears the cookie. It always succeeds.
func AuthLogout(secureCookies bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, pkgAuth.ExpiredSessionCookie(secureCookies))
		responses.WriteSuccess(w, loginResponse{Success: true})
	}
}

func loginOutcome(err error) string {
	return strings.ToLower(string(pkgerrors.CodeOf(err)))
}
