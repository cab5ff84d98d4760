package middleware

import (
	"net/http"

	"github.com/unrolled/secure"
)

// SecureHeaders sets the standard hardening headers. HSTS and SSL redirects
// are only enforced outside dev.
func SecureHeaders(isDev bool) func(http.Handler) http.Handler {
	opts := secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		ReferrerPolicy:        "same-origin",
		ContentSecurityPolicy: "default-src 'self'; frame-ancestors 'none'",
		IsDevelopment:         isDev,
	}
	if !isDev {
		opts.STSSeconds = 31536000
		opts.STSIncludeSubdomains = true
		opts.SSLProxyHeaders = map[string]string{"X-Forwarded-Proto": "https"}
	}
	return secure.New(opts).Handler
}
