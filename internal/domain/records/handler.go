package records

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/caregate/caregate/internal/domain/grants"
	"github.com/caregate/caregate/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/records/:ownerId/export", h.ExportRecord)
	api.GET("/records/:ownerId/:section", h.ReadSection)
	api.PUT("/records/:section", h.WriteSection, auth.RequireRole(auth.RolePatient))
}

func (h *Handler) ReadSection(c echo.Context) error {
	ctx := c.Request().Context()
	actorID := auth.ActorIDFromContext(ctx)
	if actorID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown actor")
	}

	sec, err := h.svc.ReadSection(ctx, actorID, c.QueryParam("grant_id"), c.Param("ownerId"), c.Param("section"))
	if err != nil {
		return recordHTTPError(err)
	}
	return c.JSON(http.StatusOK, sec)
}

func (h *Handler) ExportRecord(c echo.Context) error {
	ctx := c.Request().Context()
	actorID := auth.ActorIDFromContext(ctx)
	if actorID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown actor")
	}

	doc, err := h.svc.Export(ctx, actorID, c.QueryParam("grant_id"), c.Param("ownerId"))
	if err != nil {
		return recordHTTPError(err)
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) WriteSection(c echo.Context) error {
	ctx := c.Request().Context()
	actorID := auth.ActorIDFromContext(ctx)
	if actorID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown actor")
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "reading request body")
	}

	sec, err := h.svc.WriteSection(ctx, actorID, c.Param("section"), json.RawMessage(body))
	if err != nil {
		return recordHTTPError(err)
	}
	return c.JSON(http.StatusOK, sec)
}

func recordHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrInvalidSection):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, grants.ErrAccessDenied):
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	case errors.Is(err, grants.ErrStorageConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
