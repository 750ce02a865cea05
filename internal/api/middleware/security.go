// Package middleware holds the API's echo middleware.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// HeaderAPIKey carries the API key on guarded routes.
const HeaderAPIKey = "X-Api-Key"

// SecurityHeaders sets conservative response headers.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			// Prevent MIME type sniffing
			h.Set("X-Content-Type-Options", "nosniff")

			// Prevent clickjacking
			h.Set("X-Frame-Options", "DENY")

			h.Set("Referrer-Policy", "no-referrer")

			// Never cache API responses; results depend on upstream state.
			if strings.HasPrefix(c.Request().URL.Path, "/api") {
				h.Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
				h.Set("Pragma", "no-cache")
			}

			return next(c)
		}
	}
}

// AttemptLimiter records key checks per client.
type AttemptLimiter interface {
	IsLocked(ip string) bool
	RecordFailure(ip string)
	RecordSuccess(ip string)
}

// APIKey rejects requests whose X-Api-Key header does not match key. An
// empty key disables the check. limiter may be nil.
func APIKey(key string, limiter AttemptLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if key == "" {
			return next
		}
		return func(c echo.Context) error {
			ip := c.RealIP()
			if limiter != nil && limiter.IsLocked(ip) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many failed attempts, please try again later")
			}

			given := c.Request().Header.Get(HeaderAPIKey)
			if subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
				if limiter != nil {
					limiter.RecordFailure(ip)
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing API key")
			}

			if limiter != nil {
				limiter.RecordSuccess(ip)
			}
			return next(c)
		}
	}
}
