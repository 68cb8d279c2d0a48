package journey

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mscartozzoni/clinic-api/internal/platform/auth"
	"github.com/mscartozzoni/clinic-api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole("physician", "nurse", "reception")

	g := api.Group("", role)
	g.POST("/journeys", h.CreateJourney)
	g.GET("/journeys", h.ListJourneys)
	g.GET("/journeys/:id", h.GetJourney)
	g.POST("/journeys/:id/stages", h.AddStage)
	g.PUT("/stages/:id", h.UpdateStage)
	g.POST("/stages/:id/notes", h.AddProgressNote)
	g.GET("/stages/:id/notes", h.ListProgressNotes)
	g.GET("/patients/:id/progress-notes", h.ListProgressNotesByPatient)
}

// httpError maps domain errors onto HTTP status codes. Persistence faults
// fall through as 500 with the wrapped cause intact.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrJourneyNotFound),
		errors.Is(err, ErrStageNotFound),
		errors.Is(err, ErrProtocolNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrMissingPatientID),
		errors.Is(err, ErrMissingStageName),
		errors.Is(err, ErrMissingDescription),
		errors.Is(err, ErrMissingProfessional),
		errors.Is(err, ErrInvalidStageStatus):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) CreateJourney(c echo.Context) error {
	var in CreateJourneyInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	j, err := h.svc.CreateJourney(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, j)
}

func (h *Handler) GetJourney(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	j, err := h.svc.GetJourney(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, j)
}

func (h *Handler) ListJourneys(c echo.Context) error {
	pg := pagination.FromContext(c)
	if patientID := c.QueryParam("patient_id"); patientID != "" {
		pid, err := uuid.Parse(patientID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		items, total, err := h.svc.ListJourneysByPatient(c.Request().Context(), pid, pg.Limit, pg.Offset)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}
	items, total, err := h.svc.ListJourneys(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) AddStage(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in AddStageInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	st, err := h.svc.AddStage(c.Request().Context(), id, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, st)
}

func (h *Handler) UpdateStage(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in UpdateStageInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	st, err := h.svc.UpdateStage(c.Request().Context(), id, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, st)
}

type addNoteRequest struct {
	PatientID               uuid.UUID `json:"patient_id"`
	Description             string    `json:"description"`
	ResponsibleProfessional string    `json:"responsible_professional"`
}

func (h *Handler) AddProgressNote(c echo.Context) error {
	stageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req addNoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ResponsibleProfessional == "" {
		req.ResponsibleProfessional = auth.UserNameFromContext(c.Request().Context())
	}
	n, err := h.svc.AddProgressNote(c.Request().Context(), req.PatientID, stageID,
		req.Description, req.ResponsibleProfessional)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *Handler) ListProgressNotes(c echo.Context) error {
	stageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	notes, err := h.svc.ListProgressNotes(c.Request().Context(), stageID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, notes)
}

func (h *Handler) ListProgressNotesByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	notes, total, err := h.svc.ListProgressNotesByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(notes, total, pg.Limit, pg.Offset))
}
