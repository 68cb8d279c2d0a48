package worklist

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mscartozzoni/clinic-api/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole("physician", "nurse", "reception")
	api.GET("/worklist", h.Get, role)
}

func (h *Handler) Get(c echo.Context) error {
	sectorName := auth.SectorFromContext(c.Request().Context())
	entries, err := h.svc.Build(c.Request().Context(), sectorName, time.Now().UTC())
	if err != nil {
		if errors.Is(err, ErrSectorForbidden) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"generated_at": time.Now().UTC(),
		"count":        len(entries),
		"entries":      entries,
	})
}
