package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists URL paths that should bypass session validation
// entirely. These are infrastructure endpoints only; the public-route guard
// is not listed because it inspects the principal when one is present.
var publicPaths = map[string]bool{
	"/health":    true,
	"/health/db": true,
}

// SessionSkipper returns true for requests whose path should skip session
// validation.
func SessionSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether the given path is a public endpoint that
// bypasses session middleware.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
