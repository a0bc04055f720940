package billing

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/pkg/money"
	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RolePatient))
	read.GET("/bills", h.List)
	read.GET("/bills/:id", h.Get)

	write := api.Group("", auth.RequireRole(auth.RoleNurse))
	write.POST("/bills/:id/finalize", h.Finalize)
	write.POST("/bills/:id/apply-policy", h.ApplyPolicy)
	write.POST("/bills/:id/pay", h.Pay)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	b, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "bill not found")
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	patientID := c.QueryParam("patient_id")
	if patientID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	pid, err := uuid.Parse(patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	items, total, err := h.svc.ListByPatient(c.Request().Context(), pid, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Finalize(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	b, err := h.svc.Finalize(c.Request().Context(), id)
	if err != nil {
		return billError(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ApplyPolicy(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		PolicyID string `json:"policy_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	policyID, err := uuid.Parse(req.PolicyID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid policy_id")
	}
	b, err := h.svc.ApplyPolicy(c.Request().Context(), id, policyID)
	if err != nil {
		return billError(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) Pay(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		Amount string `json:"amount"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	amount, err := money.Parse(req.Amount)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid amount")
	}
	b, err := h.svc.Pay(c.Request().Context(), id, amount)
	if err != nil {
		return billError(err)
	}
	return c.JSON(http.StatusOK, b)
}

// billError maps the billing error taxonomy onto HTTP statuses: validation
// to 400, state conflicts and limit violations to 409.
func billError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrInvalidCharge):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrChargesPending),
		errors.Is(err, ErrAlreadyFinalized),
		errors.Is(err, ErrBillNotFinalized),
		errors.Is(err, ErrBillAlreadyPaid),
		errors.Is(err, ErrPaymentMismatch),
		errors.Is(err, ErrPolicyAlreadyApplied),
		errors.Is(err, ErrPolicyOwnership),
		errors.Is(err, ErrPolicyNotActive),
		errors.Is(err, ErrDuplicateCharge),
		errors.Is(err, ErrVersionConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusNotFound, "bill not found")
	}
}
