package access

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
)

// ExemptionChecker is the slice of the exemption registry the route guard
// needs. A failed lookup must read as not-exempt, so the method returns a
// plain bool.
type ExemptionChecker interface {
	IsExempt(ctx context.Context, email string) bool
}

// Handler serves the interactive guard endpoints used by the client before
// navigation. Both endpoints evaluate the same Decide function as the edge
// middleware, with inputs fetched fresh on every call — guard outcomes are
// never cached client-side beyond the current page render.
type Handler struct {
	resolver   *Resolver
	exemptions ExemptionChecker
}

func NewHandler(resolver *Resolver, exemptions ExemptionChecker) *Handler {
	return &Handler{resolver: resolver, exemptions: exemptions}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/access/route-guard", h.RouteGuard)
	e.POST("/access/public-guard", h.PublicGuard)
}

type routeGuardRequest struct {
	Path string `json:"path"`
}

type guardResponse struct {
	Decision string `json:"decision"`
	Target   string `json:"target,omitempty"`
	SignOut  bool   `json:"sign_out,omitempty"`
}

func toGuardResponse(d Decision) guardResponse {
	if d.Allow {
		return guardResponse{Decision: "allow"}
	}
	return guardResponse{Decision: "redirect", Target: d.RedirectTo, SignOut: d.SignOut}
}

// RouteGuard is the client-side pre-navigation check. Unlike the edge
// middleware it consults the exemption registry by the principal's email, so
// an exempt doctor whose account has drifted inactive is still let through
// here while the next renewal corrects the row.
func (h *Handler) RouteGuard(c echo.Context) error {
	var req routeGuardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Path == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "path is required")
	}

	ctx := c.Request().Context()
	p := auth.PrincipalFromContext(ctx)
	res := h.resolver.Resolve(ctx, p)

	exempt := false
	if res.Role == RoleDoctor && p != nil {
		exempt = h.exemptions.IsExempt(ctx, p.Email)
	}

	decision := Decide(ZoneForPath(req.Path), res.PolicyInputs(exempt))
	return c.JSON(http.StatusOK, toGuardResponse(decision))
}

// PublicGuard is the inverse check used on login and registration pages:
// anonymous and unknown principals may render, authenticated ones are sent
// to their role-appropriate home.
func (h *Handler) PublicGuard(c echo.Context) error {
	ctx := c.Request().Context()
	p := auth.PrincipalFromContext(ctx)
	res := h.resolver.Resolve(ctx, p)

	exempt := false
	if res.Role == RoleDoctor && p != nil {
		exempt = h.exemptions.IsExempt(ctx, p.Email)
	}

	decision := Decide(ZonePublic, res.PolicyInputs(exempt))
	return c.JSON(http.StatusOK, toGuardResponse(decision))
}
