package exemption

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/domain/access"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the registry endpoints. The admin group is assumed
// to sit behind the access guard. The check endpoint requires only a valid
// session, not a doctor account, because the registration flow calls it
// before the account exists.
func (h *Handler) RegisterRoutes(e *echo.Echo, admin *echo.Group) {
	e.POST("/check-exemption", h.CheckExemption)
	admin.POST("/exemptions", h.Add)
	admin.DELETE("/exemptions/:id", h.Remove)
	admin.GET("/exemptions", h.List)
}

type checkRequest struct {
	Email string `json:"email"`
}

type checkResponse struct {
	IsExempted bool   `json:"is_exempted"`
	Exemption  *Entry `json:"exemption,omitempty"`
}

func (h *Handler) CheckExemption(c echo.Context) error {
	if auth.PrincipalFromContext(c.Request().Context()) == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req checkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	entry, err := h.svc.Lookup(c.Request().Context(), req.Email)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusOK, checkResponse{IsExempted: false})
	}
	if err != nil {
		// The check endpoint mirrors IsExempt semantics: an ambiguous
		// failure reads as not-exempt rather than an error page.
		return c.JSON(http.StatusOK, checkResponse{IsExempted: false})
	}
	return c.JSON(http.StatusOK, checkResponse{IsExempted: true, Exemption: entry})
}

type addRequest struct {
	Email string `json:"email"`
}

func (h *Handler) Add(c echo.Context) error {
	admin := access.AdminFromContext(c.Request().Context())
	if admin == nil {
		return echo.NewHTTPError(http.StatusForbidden, "admin role required")
	}

	var req addRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	entry, err := h.svc.Add(c.Request().Context(), req.Email, admin.ID)
	if errors.Is(err, ErrDuplicate) {
		return echo.NewHTTPError(http.StatusConflict, "email is already exempt")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, entry)
}

func (h *Handler) Remove(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.svc.Remove(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "exemption entry not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to remove exemption")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	entries, total, err := h.svc.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list exemptions")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, p.Limit, p.Offset))
}
