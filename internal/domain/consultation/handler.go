package consultation

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/caregate/caregate/internal/domain/grants"
	"github.com/caregate/caregate/internal/platform/auth"
	"github.com/caregate/caregate/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/consultations", h.SubmitConsultation)
	api.GET("/consultations", h.ListConsultations)
	api.GET("/consultations/:id", h.GetConsultation)
}

func (h *Handler) SubmitConsultation(c echo.Context) error {
	ctx := c.Request().Context()
	actorID := auth.ActorIDFromContext(ctx)
	if actorID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown actor")
	}

	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.svc.Submit(ctx, actorID, req)
	if err != nil {
		return consultationHTTPError(err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) ListConsultations(c echo.Context) error {
	ctx := c.Request().Context()
	actorID := auth.ActorIDFromContext(ctx)
	if actorID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown actor")
	}

	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByOwner(ctx, actorID, c.QueryParam("grant_id"), pg.Limit, pg.Offset)
	if err != nil {
		return consultationHTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetConsultation(c echo.Context) error {
	ctx := c.Request().Context()
	actorID := auth.ActorIDFromContext(ctx)
	if actorID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown actor")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consultation id")
	}

	item, err := h.svc.GetByID(ctx, actorID, c.QueryParam("grant_id"), id)
	if err != nil {
		return consultationHTTPError(err)
	}
	return c.JSON(http.StatusOK, item)
}

func consultationHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, grants.ErrAccessDenied):
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	case errors.Is(err, grants.ErrStorageConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, grants.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidObservation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
