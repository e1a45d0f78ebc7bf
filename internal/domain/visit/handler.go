package visit

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/omniclinic/opd/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/registrations", h.Register)
	api.GET("/visits", h.ListVisits)
	api.GET("/visits/:id", h.GetVisit)
	api.PUT("/visits/:id/vitals", h.RecordVitals)
	api.POST("/visits/:id/forward", h.ForwardToConsultant)
	api.POST("/visits/:id/consultation", h.CompleteConsultation)
	api.PATCH("/visits/:id/lab-orders/:orderID", h.AdvanceLabOrder)
	api.POST("/visits/:id/dispense", h.Dispense)
	api.POST("/visits/:id/payment", h.AcceptPayment)
	api.GET("/queues/:role", h.Queue)
	api.GET("/visits/:id/insights", h.Insights)
	api.GET("/departments", h.Departments)
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	v, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) GetVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}

	v, err := h.svc.GetVisit(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

// ListVisits returns all visits in creation order, optionally filtered
// to one patient with ?mr_number=.
func (h *Handler) ListVisits(c echo.Context) error {
	ctx := c.Request().Context()
	pg := pagination.FromContext(c)

	var (
		visits []*Visit
		err    error
	)
	if mrn := c.QueryParam("mr_number"); mrn != "" {
		visits, err = h.svc.ListVisitsByPatient(ctx, mrn)
	} else {
		visits, err = h.svc.ListVisits(ctx)
	}
	if err != nil {
		return httpError(err)
	}

	total := len(visits)
	lo, hi := pg.Slice(total)
	return c.JSON(http.StatusOK, pagination.NewResponse(visits[lo:hi], total, pg.Limit, pg.Offset))
}

func (h *Handler) RecordVitals(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}

	var vt Vitals
	if err := c.Bind(&vt); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	v, err := h.svc.RecordVitals(c.Request().Context(), id, vt)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) ForwardToConsultant(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}

	var upd JuniorUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	v, err := h.svc.ForwardToConsultant(c.Request().Context(), id, upd)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) CompleteConsultation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}

	var upd ConsultUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	v, err := h.svc.CompleteConsultation(c.Request().Context(), id, upd)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) AdvanceLabOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}
	orderID, err := uuid.Parse(c.Param("orderID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid lab order id")
	}

	var p LabProgress
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	v, err := h.svc.AdvanceLabOrder(c.Request().Context(), id, orderID, p)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) Dispense(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}

	v, err := h.svc.Dispense(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) AcceptPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}

	v, err := h.svc.AcceptPayment(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) Queue(c echo.Context) error {
	pg := pagination.FromContext(c)

	visits, err := h.svc.Queue(c.Request().Context(), Role(c.Param("role")))
	if err != nil {
		return httpError(err)
	}

	total := len(visits)
	lo, hi := pg.Slice(total)
	return c.JSON(http.StatusOK, pagination.NewResponse(visits[lo:hi], total, pg.Limit, pg.Offset))
}

// Insights is advisory: a failing upstream degrades to the placeholder
// body with 200, never an error status.
func (h *Handler) Insights(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}

	res, err := h.svc.ClinicalInsights(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Departments(c echo.Context) error {
	return c.JSON(http.StatusOK, DepartmentConfigs())
}

func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
