package subscription

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/domain/access"
	"github.com/clinicdesk/clinicdesk/internal/domain/account"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/blobstore"
)

type Handler struct {
	svc     *Service
	sweeper *Sweeper
}

func NewHandler(svc *Service, sweeper *Sweeper) *Handler {
	return &Handler{svc: svc, sweeper: sweeper}
}

// RegisterRoutes mounts the lifecycle endpoints. The dashboard group sits
// behind the access guard; /register only needs an authenticated
// principal because the doctor record does not exist yet; the jobs
// endpoint is hit by the scheduler with its own service session.
func (h *Handler) RegisterRoutes(e *echo.Echo, dashboard *echo.Group) {
	e.POST("/register", h.Register)
	dashboard.POST("/payment-proof", h.SubmitProof)
	e.POST("/jobs/check-payment-status", h.CheckPaymentStatus)
}

type registerRequest struct {
	FullName string `json:"full_name"`
}

func (h *Handler) Register(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	d, err := h.svc.Register(c.Request().Context(), p.ID, p.Email, req.FullName)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) SubmitProof(c echo.Context) error {
	doctor := access.DoctorFromContext(c.Request().Context())
	if doctor == nil {
		return echo.NewHTTPError(http.StatusForbidden, "doctor account required")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if fh.Size > blobstore.MaxFileSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file exceeds maximum allowed size")
	}
	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}
	defer src.Close()

	d, err := h.svc.SubmitProof(c.Request().Context(), doctor.ID,
		fh.Filename, fh.Header.Get("Content-Type"), src)
	switch {
	case errors.Is(err, blobstore.ErrInvalidContentType):
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, "only PNG, JPEG and PDF proofs are accepted")
	case errors.Is(err, blobstore.ErrFileTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file exceeds maximum allowed size")
	case errors.Is(err, account.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "doctor account not found")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to submit payment proof")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) CheckPaymentStatus(c echo.Context) error {
	if auth.PrincipalFromContext(c.Request().Context()) == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	res, err := h.sweeper.Sweep(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "sweep failed")
	}
	return c.JSON(http.StatusOK, res)
}
