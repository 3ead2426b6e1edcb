package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/unrolled/secure"
)

// SecureHeaders sets the standard hardening headers on every response. SSL
// redirects only apply in production.
func SecureHeaders(production bool) fiber.Handler {
	sm := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		SSLRedirect:           production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !production,
	})
	return adaptor.HTTPMiddleware(sm.Handler)
}

// RateLimit allows requests per window for each client IP and answers 429
// beyond that. A non-positive limit disables it.
func RateLimit(requests int, window time.Duration) fiber.Handler {
	if requests <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	limiter := httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message":"Too Many Attempts."}`))
		}),
	)
	return adaptor.HTTPMiddleware(limiter)
}
