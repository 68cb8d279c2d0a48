package journey

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *mockRepo, *mockProtocols) {
	svc, repo, protocols := newTestService()
	return NewHandler(svc), repo, protocols
}

func doJSON(e *echo.Echo, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandlerCreateJourney(t *testing.T) {
	h, _, _ := newTestHandler()
	e := echo.New()
	pid := uuid.New()

	c, rec := doJSON(e, http.MethodPost, "/journeys", `{"patient_id":"`+pid.String()+`","title":"Rhinoplasty"}`)
	if err := h.CreateJourney(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var got Journey
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.PatientID != pid || got.Status != JourneyActive {
		t.Errorf("unexpected body: %+v", got)
	}
}

func TestHandlerCreateJourney_MissingPatient(t *testing.T) {
	h, _, _ := newTestHandler()
	e := echo.New()

	c, _ := doJSON(e, http.MethodPost, "/journeys", `{"title":"no patient"}`)
	err := h.CreateJourney(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestHandlerGetJourney_NotFound(t *testing.T) {
	h, _, _ := newTestHandler()
	e := echo.New()

	c, _ := doJSON(e, http.MethodGet, "/journeys/"+uuid.NewString(), "")
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := h.GetJourney(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404 HTTPError, got %v", err)
	}
}

func TestHandlerGetJourney_InvalidID(t *testing.T) {
	h, _, _ := newTestHandler()
	e := echo.New()

	c, _ := doJSON(e, http.MethodGet, "/journeys/abc", "")
	c.SetParamNames("id")
	c.SetParamValues("abc")

	err := h.GetJourney(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestHandlerListJourneys_FilterByPatient(t *testing.T) {
	h, repo, _ := newTestHandler()
	e := echo.New()
	pid := uuid.New()

	repo.CreateJourney(context.Background(), &Journey{PatientID: pid, Status: JourneyActive})
	repo.CreateJourney(context.Background(), &Journey{PatientID: uuid.New(), Status: JourneyActive})

	c, rec := doJSON(e, http.MethodGet, "/journeys?patient_id="+pid.String(), "")
	if err := h.ListJourneys(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data  []*Journey `json:"data"`
		Total int        `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 || len(resp.Data) != 1 {
		t.Errorf("expected 1 journey for patient, got total=%d len=%d", resp.Total, len(resp.Data))
	}
}

func TestHandlerAddStage(t *testing.T) {
	h, repo, _ := newTestHandler()
	e := echo.New()

	j := &Journey{PatientID: uuid.New(), Status: JourneyActive}
	repo.CreateJourney(context.Background(), j)

	c, rec := doJSON(e, http.MethodPost, "/journeys/"+j.ID.String()+"/stages", `{"stage_name":"consultation"}`)
	c.SetParamNames("id")
	c.SetParamValues(j.ID.String())

	if err := h.AddStage(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var got Stage
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.StageName != "consultation" || got.Status != StagePending {
		t.Errorf("unexpected stage: %+v", got)
	}
}

func TestHandlerAddStage_InvalidStatus(t *testing.T) {
	h, repo, _ := newTestHandler()
	e := echo.New()

	j := &Journey{PatientID: uuid.New(), Status: JourneyActive}
	repo.CreateJourney(context.Background(), j)

	c, _ := doJSON(e, http.MethodPost, "/journeys/"+j.ID.String()+"/stages", `{"stage_name":"x","status":"done"}`)
	c.SetParamNames("id")
	c.SetParamValues(j.ID.String())

	err := h.AddStage(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestHandlerUpdateStage_Completes(t *testing.T) {
	h, repo, _ := newTestHandler()
	e := echo.New()

	j := &Journey{PatientID: uuid.New(), Status: JourneyActive}
	st := &Stage{StageName: "consultation", Status: StagePending}
	j.Stages = []*Stage{st}
	repo.CreateJourney(context.Background(), j)

	c, rec := doJSON(e, http.MethodPut, "/stages/"+st.ID.String(), `{"status":"completed"}`)
	c.SetParamNames("id")
	c.SetParamValues(st.ID.String())

	if err := h.UpdateStage(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var got Stage
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Status != StageCompleted || got.CompletedAt == nil {
		t.Errorf("unexpected stage: %+v", got)
	}
	if repo.journeys[j.ID].Status != JourneyCompleted {
		t.Errorf("journey status not recomputed, got %s", repo.journeys[j.ID].Status)
	}
}

func TestHandlerUpdateStage_NotFound(t *testing.T) {
	h, _, _ := newTestHandler()
	e := echo.New()

	c, _ := doJSON(e, http.MethodPut, "/stages/"+uuid.NewString(), `{"status":"completed"}`)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := h.UpdateStage(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404 HTTPError, got %v", err)
	}
}

func TestHandlerAddProgressNote(t *testing.T) {
	h, repo, _ := newTestHandler()
	e := echo.New()
	pid := uuid.New()

	j := &Journey{PatientID: pid, Status: JourneyActive}
	st := &Stage{StageName: "consultation", Status: StagePending}
	j.Stages = []*Stage{st}
	repo.CreateJourney(context.Background(), j)

	body := `{"patient_id":"` + pid.String() + `","description":"patient stable","responsible_professional":"Dr. Souza"}`
	c, rec := doJSON(e, http.MethodPost, "/stages/"+st.ID.String()+"/notes", body)
	c.SetParamNames("id")
	c.SetParamValues(st.ID.String())

	if err := h.AddProgressNote(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var got ProgressNote
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Description != "patient stable" || got.ResponsibleProfessional != "Dr. Souza" {
		t.Errorf("unexpected note: %+v", got)
	}
}

func TestHandlerAddProgressNote_EmptyDescription(t *testing.T) {
	h, repo, _ := newTestHandler()
	e := echo.New()

	j := &Journey{PatientID: uuid.New(), Status: JourneyActive}
	st := &Stage{StageName: "consultation", Status: StagePending}
	j.Stages = []*Stage{st}
	repo.CreateJourney(context.Background(), j)

	c, _ := doJSON(e, http.MethodPost, "/stages/"+st.ID.String()+"/notes", `{"description":""}`)
	c.SetParamNames("id")
	c.SetParamValues(st.ID.String())

	err := h.AddProgressNote(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestHandlerListProgressNotes(t *testing.T) {
	h, repo, _ := newTestHandler()
	e := echo.New()
	pid := uuid.New()

	j := &Journey{PatientID: pid, Status: JourneyActive}
	st := &Stage{StageName: "consultation", Status: StagePending}
	j.Stages = []*Stage{st}
	repo.CreateJourney(context.Background(), j)
	repo.AddProgressNote(context.Background(), &ProgressNote{StageID: st.ID, PatientID: pid, Description: "seen"})

	c, rec := doJSON(e, http.MethodGet, "/stages/"+st.ID.String()+"/notes", "")
	c.SetParamNames("id")
	c.SetParamValues(st.ID.String())

	if err := h.ListProgressNotes(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got []*ProgressNote
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 note, got %d", len(got))
	}
}
