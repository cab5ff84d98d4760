package middleware

import (
	"context"
	"net/http"

	pkgAuth "github.com/famiglia/ops-console/pkg/auth"
	"github.com/famiglia/ops-console/pkg/config"
	"github.com/famiglia/ops-console/pkg/logger"
	"github.com/famiglia/ops-console/pkg/metrics"
)

// DashboardPath is the console landing page behind the gate.
const DashboardPath = "/dashboard"

// Gate admits requests carrying a valid admin_token cookie and redirects
// everything else to the login page. Verification failures are logged, never
// returned to the client.
func Gate(cfg config.JWTConfig, loginPath string, authMetrics *metrics.AuthMetrics, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := pkgAuth.TokenFromRequest(r)
			if token == "" {
				authMetrics.IncGateRedirect("missing")
				http.Redirect(w, r, loginPath, http.StatusTemporaryRedirect)
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				if logg != nil {
					logg.WarnErr(r.Context(), "gate.token_rejected", err)
				}
				authMetrics.IncGateRedirect("invalid")
				http.Redirect(w, r, loginPath, http.StatusTemporaryRedirect)
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.Subject)
			ctx = context.WithValue(ctx, ctxRole, string(claims.Role))
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    claims.Subject,
					"actor_role": string(claims.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RootRedirect sends "/" to the dashboard when a session cookie is present and
// to the login page otherwise. Only presence is checked; the gate verifies.
func RootRedirect(loginPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie(pkgAuth.CookieName); err == nil {
			http.Redirect(w, r, DashboardPath, http.StatusTemporaryRedirect)
			return
		}
		http.Redirect(w, r, loginPath, http.StatusTemporaryRedirect)
	}
}
