package access

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
)

// Guard returns the edge-time enforcement middleware. It runs once per
// request to a protected path prefix, before any handler logic: resolves the
// principal, classifies the path, and answers with the shared policy
// decision. The edge check does not consult the exemption registry — exempt
// accounts already carry IsActive=true from registration or renewal — so a
// registry outage cannot take protected pages down.
//
// The guard is read-only: it never writes subscription state.
func Guard(resolver *Resolver, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			zone := ZoneForPath(c.Request().URL.Path)
			if zone == ZonePublic {
				return next(c)
			}

			path := c.Request().URL.Path
			ctx := c.Request().Context()
			res := resolver.Resolve(ctx, auth.PrincipalFromContext(ctx))

			// An inactive doctor still reaches the proof upload; every
			// other check applies unchanged.
			if zone == ZoneDoctor && res.Role == RoleDoctor && AllowsInactive(path) {
				c.SetRequest(c.Request().WithContext(WithResolution(ctx, res)))
				return next(c)
			}

			decision := Decide(zone, res.PolicyInputs(false))

			if decision.Allow {
				c.SetRequest(c.Request().WithContext(WithResolution(ctx, res)))
				return next(c)
			}

			if decision.SignOut {
				logger.Warn().
					Str("principal_id", res.Principal.ID).
					Str("path", path).
					Msg("principal matches neither admins nor doctors, forcing sign-out")
			}

			return c.Redirect(http.StatusFound, decision.RedirectTo)
		}
	}
}
