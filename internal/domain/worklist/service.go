// Package worklist builds the ranked work queue shown to clinic staff. It
// pulls active journeys, drops the ones the caller's sector may not see,
// ranks the rest by urgency and enriches each entry with the patient's
// display name.
package worklist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mscartozzoni/clinic-api/internal/domain/journey"
	"github.com/mscartozzoni/clinic-api/internal/domain/sector"
)

var ErrSectorForbidden = errors.New("sector has no worklist access")

// JourneySource yields the journeys eligible for ranking.
type JourneySource interface {
	ListActiveJourneys(ctx context.Context) ([]*journey.Journey, error)
}

// PatientNamer resolves patient display names in batch.
type PatientNamer interface {
	NamesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// NextAction points staff at the stage to work on next.
type NextAction struct {
	StageID   uuid.UUID  `json:"stage_id"`
	StageName string     `json:"stage_name"`
	Status    string     `json:"status"`
	DueDate   *time.Time `json:"due_date,omitempty"`
}

// Entry is one row of the worklist, ordered most urgent first.
type Entry struct {
	JourneyID   uuid.UUID   `json:"journey_id"`
	PatientID   uuid.UUID   `json:"patient_id"`
	PatientName string      `json:"patient_name,omitempty"`
	Title       string      `json:"title"`
	Status      string      `json:"status"`
	Score       float64     `json:"score"`
	NextAction  *NextAction `json:"next_action,omitempty"`
}

type Service struct {
	journeys JourneySource
	patients PatientNamer
}

func NewService(journeys JourneySource, patients PatientNamer) *Service {
	return &Service{journeys: journeys, patients: patients}
}

// Build assembles the worklist for one sector at a single point in time.
// The result is a snapshot: nothing is locked, and the next fetch re-ranks
// from scratch.
func (s *Service) Build(ctx context.Context, sectorName string, now time.Time) ([]Entry, error) {
	if !sector.Allowed(sectorName, sector.ActionView) {
		return nil, fmt.Errorf("%w: %q", ErrSectorForbidden, sectorName)
	}

	active, err := s.journeys.ListActiveJourneys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active journeys: %w", err)
	}

	visible := make([]*journey.Journey, 0, len(active))
	for _, j := range active {
		names := make([]string, 0, len(j.Stages))
		for _, st := range j.Stages {
			names = append(names, st.StageName)
		}
		if sector.VisibleJourney(sectorName, names) {
			visible = append(visible, j)
		}
	}

	ranked := journey.Rank(visible, now)

	ids := make([]uuid.UUID, 0, len(ranked))
	for _, j := range ranked {
		ids = append(ids, j.PatientID)
	}
	names, err := s.patients.NamesByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve patient names: %w", err)
	}

	entries := make([]Entry, 0, len(ranked))
	for _, j := range ranked {
		e := Entry{
			JourneyID:   j.ID,
			PatientID:   j.PatientID,
			PatientName: names[j.PatientID],
			Title:       j.Title,
			Status:      j.Status,
			Score:       journey.PriorityScore(j, now),
		}
		if st := journey.NextSuggestedAction(j); st != nil {
			e.NextAction = &NextAction{
				StageID:   st.ID,
				StageName: st.StageName,
				Status:    st.Status,
				DueDate:   st.DueDate,
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}
