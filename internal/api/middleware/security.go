// Package middleware holds HTTP middleware shared by every route.
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// contentPolicy allows the wall's own assets plus remote poster images.
const contentPolicy = "default-src 'self'; img-src 'self' https: data:; style-src 'self' 'unsafe-inline'; connect-src 'self' ws: wss:; frame-ancestors 'self'"

// SecurityHeaders sets the browser hardening headers. Responses under any of
// noStorePrefixes are marked uncacheable.
func SecurityHeaders(noStorePrefixes ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			// Prevent MIME type sniffing
			h.Set("X-Content-Type-Options", "nosniff")

			// Prevent clickjacking
			h.Set("X-Frame-Options", "SAMEORIGIN")

			// Control referrer information
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

			h.Set("Content-Security-Policy", contentPolicy)

			path := c.Request().URL.Path
			if c.Request().Method != "GET" || hasAnyPrefix(path, noStorePrefixes) {
				h.Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
				h.Set("Pragma", "no-cache")
			}

			return next(c)
		}
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
