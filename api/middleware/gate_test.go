package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgAuth "github.com/famiglia/ops-console/pkg/auth"
	"github.com/famiglia/ops-console/pkg/config"
	"github.com/famiglia/ops-console/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var gateJWT = config.JWTConfig{Secret: "gate-secret", Issuer: "famiglia-admin"}

func mintToken(t *testing.T, cfg config.JWTConfig, issuedAt time.Time) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg, issuedAt, pkgAuth.AccessTokenPayload{
		UserID: 7,
		Email:  "boss@famiglia.test",
		Role:   enums.UserRoleAdmin,
	})
	require.NoError(t, err)
	return token
}

func gatedHandler(t *testing.T, reached *bool) http.Handler {
	t.Helper()
	return Gate(gateJWT, "/login", nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*reached = true
		assert.Equal(t, "7", UserIDFromContext(r.Context()))
		assert.Equal(t, "admin", RoleFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))
}

func TestGateRedirects(t *testing.T) {
	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "7", "role": "admin", "iss": gateJWT.Issuer, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{name: "no cookie"},
		{name: "empty cookie", cookie: &http.Cookie{Name: pkgAuth.CookieName, Value: ""}},
		{name: "garbage", cookie: &http.Cookie{Name: pkgAuth.CookieName, Value: "not-a-jwt"}},
		{name: "expired", cookie: &http.Cookie{Name: pkgAuth.CookieName, Value: mintToken(t, gateJWT, time.Now().Add(-25*time.Hour))}},
		{name: "wrong key", cookie: &http.Cookie{Name: pkgAuth.CookieName, Value: mintToken(t, config.JWTConfig{Secret: "other", Issuer: gateJWT.Issuer}, time.Now())}},
		{name: "wrong issuer", cookie: &http.Cookie{Name: pkgAuth.CookieName, Value: mintToken(t, config.JWTConfig{Secret: gateJWT.Secret, Issuer: "someone-else"}, time.Now())}},
		{name: "alg none", cookie: &http.Cookie{Name: pkgAuth.CookieName, Value: noneToken}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			req := httptest.NewRequest(http.MethodGet, "/dashboard/sales", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()

			gatedHandler(t, &reached).ServeHTTP(rec, req)

			assert.False(t, reached)
			assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
			assert.Equal(t, "/login", rec.Header().Get("Location"))
			assert.NotContains(t, rec.Body.String(), "signature")
		})
	}
}

func TestGatePassesValidToken(t *testing.T) {
	reached := false
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: pkgAuth.CookieName, Value: mintToken(t, gateJWT, time.Now().Add(-23*time.Hour))})
	rec := httptest.NewRecorder()

	gatedHandler(t, &reached).ServeHTTP(rec, req)

	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRootRedirect(t *testing.T) {
	handler := RootRedirect("/login")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	// Presence alone decides; the gate verifies later.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: pkgAuth.CookieName, Value: "anything"})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, DashboardPath, rec.Header().Get("Location"))
}

func TestSecureHeaders(t *testing.T) {
	handler := SecureHeaders(true)(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
