package adminops

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/domain/access"
	"github.com/clinicdesk/clinicdesk/internal/domain/account"
	"github.com/clinicdesk/clinicdesk/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the verification workflow under the admin group,
// which sits behind the access guard.
func (h *Handler) RegisterRoutes(admin *echo.Group) {
	admin.POST("/verify-payment", h.VerifyPayment)
	admin.GET("/pending", h.ListPending)
	admin.GET("/actions", h.ListActions)
}

type verifyRequest struct {
	DoctorID string `json:"doctor_id"`
	Action   Action `json:"action"`
}

func (h *Handler) VerifyPayment(c echo.Context) error {
	// The actor comes from the resolved session, never the body.
	admin := access.AdminFromContext(c.Request().Context())
	if admin == nil {
		return echo.NewHTTPError(http.StatusForbidden, "admin role required")
	}

	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
	}
	if !req.Action.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "action must be approve, reject, activate or deactivate")
	}

	res, err := h.svc.PerformAction(c.Request().Context(), admin.ID, doctorID, req.Action, RequestMeta{
		UserAgent: c.Request().UserAgent(),
		IP:        c.RealIP(),
	})
	switch {
	case errors.Is(err, ErrUnauthorized):
		return echo.NewHTTPError(http.StatusForbidden, "admin role required")
	case errors.Is(err, account.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "doctor account not found")
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to apply action")
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) ListPending(c echo.Context) error {
	p := pagination.FromContext(c)
	doctors, total, err := h.svc.ListPending(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list pending accounts")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(doctors, total, p.Limit, p.Offset))
}

func (h *Handler) ListActions(c echo.Context) error {
	p := pagination.FromContext(c)
	entries, total, err := h.svc.ListActions(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list admin actions")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, p.Limit, p.Offset))
}
