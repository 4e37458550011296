package audit

import (
	"net/http"

	"github.com/labstack/echo/v4"

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
	api.GET("/audit", h.ListAuditTrail, auth.RequireRole(auth.RolePatient))
}

// ListAuditTrail returns the authenticated owner's audit trail. Owners may
// only read their own; the subject is always taken from the token, never
// from the request.
func (h *Handler) ListAuditTrail(c echo.Context) error {
	ctx := c.Request().Context()
	ownerID := auth.ActorIDFromContext(ctx)
	if ownerID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown actor")
	}

	pg := pagination.FromContext(c)
	entries, total, err := h.svc.ListBySubject(ctx, ownerID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, pg.Limit, pg.Offset))
}
