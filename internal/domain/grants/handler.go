package grants

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/caregate/caregate/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/grants", h.IssueGrant, auth.RequireRole(auth.RolePatient))
	api.GET("/grants", h.ListActiveGrants, auth.RequireRole(auth.RolePatient))
	api.POST("/grants/:id/redeem", h.RedeemGrant)
	api.DELETE("/grants/:id", h.RevokeGrant, auth.RequireRole(auth.RolePatient))
}

type issueRequest struct {
	Permissions   []string `json:"permissions"`
	DurationHours int      `json:"duration_hours"`
}

func (h *Handler) IssueGrant(c echo.Context) error {
	ctx := c.Request().Context()
	ownerID := auth.ActorIDFromContext(ctx)
	if ownerID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown actor")
	}

	var req issueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	g, err := h.svc.Issue(ctx, ownerID, req.Permissions, req.DurationHours)
	if err != nil {
		return grantHTTPError(err)
	}
	return c.JSON(http.StatusCreated, g)
}

func (h *Handler) ListActiveGrants(c echo.Context) error {
	ctx := c.Request().Context()
	ownerID := auth.ActorIDFromContext(ctx)
	if ownerID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown actor")
	}

	active, err := h.svc.ListActive(ctx, ownerID)
	if err != nil {
		return grantHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": active, "total": len(active)})
}

func (h *Handler) RedeemGrant(c echo.Context) error {
	ctx := c.Request().Context()
	redeemerID := auth.ActorIDFromContext(ctx)
	if redeemerID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown actor")
	}

	res, err := h.svc.Redeem(ctx, c.Param("id"), redeemerID)
	if err != nil {
		return grantHTTPError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) RevokeGrant(c echo.Context) error {
	ctx := c.Request().Context()
	requesterID := auth.ActorIDFromContext(ctx)
	if requesterID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown actor")
	}

	if err := h.svc.Revoke(ctx, c.Param("id"), requesterID); err != nil {
		return grantHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// grantHTTPError maps the error taxonomy onto status codes. Retryable
// conflicts get 409 so callers can distinguish "try again" from "never
// allowed".
func grantHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrInvalidPermission), errors.Is(err, ErrInvalidDuration):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUnauthorized):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrAccessDenied):
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrStorageConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
