package journey

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProtocolTemplate is the ordered stage blueprint used to seed a new journey.
// It is supplied by the protocol domain through an adapter, keeping this
// package free of a direct dependency on it.
type ProtocolTemplate struct {
	ID     uuid.UUID
	Name   string
	Stages []ProtocolStageTemplate
}

// ProtocolStageTemplate is one default stage definition inside a template.
type ProtocolStageTemplate struct {
	StageName     string
	DueOffsetDays int
}

// ProtocolProvider resolves a protocol template by id. Implementations
// return ErrProtocolNotFound when the id is unknown.
type ProtocolProvider interface {
	GetTemplate(ctx context.Context, id uuid.UUID) (*ProtocolTemplate, error)
}

type Service struct {
	journeys  Repository
	protocols ProtocolProvider
}

func NewService(journeys Repository, protocols ProtocolProvider) *Service {
	return &Service{journeys: journeys, protocols: protocols}
}

// CreateJourneyInput carries the request to open a new journey for a patient.
// ProtocolID is optional: when set, the journey is seeded with the template's
// stages; when nil, the journey starts empty.
type CreateJourneyInput struct {
	PatientID  uuid.UUID  `json:"patient_id"`
	ProtocolID *uuid.UUID `json:"protocol_id,omitempty"`
	Title      string     `json:"title"`
}

func (s *Service) CreateJourney(ctx context.Context, in CreateJourneyInput) (*Journey, error) {
	if in.PatientID == uuid.Nil {
		return nil, ErrMissingPatientID
	}

	now := time.Now().UTC()
	j := &Journey{
		PatientID: in.PatientID,
		Title:     strings.TrimSpace(in.Title),
		Status:    JourneyActive,
		CreatedAt: now,
	}

	if in.ProtocolID != nil {
		tpl, err := s.protocols.GetTemplate(ctx, *in.ProtocolID)
		if err != nil {
			return nil, fmt.Errorf("resolve protocol %s: %w", *in.ProtocolID, err)
		}
		if j.Title == "" {
			j.Title = tpl.Name
		}
		for i, st := range tpl.Stages {
			due := now.AddDate(0, 0, st.DueOffsetDays)
			j.Stages = append(j.Stages, &Stage{
				StageName: st.StageName,
				Status:    StagePending,
				DueDate:   &due,
				// CreatedAt is the stage ordering key, so seeded stages are
				// staggered to preserve the template's order.
				CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
			})
		}
	}

	if err := s.journeys.CreateJourney(ctx, j); err != nil {
		return nil, fmt.Errorf("create journey: %w", err)
	}
	return j, nil
}

func (s *Service) GetJourney(ctx context.Context, id uuid.UUID) (*Journey, error) {
	return s.journeys.GetJourney(ctx, id)
}

func (s *Service) ListJourneys(ctx context.Context, limit, offset int) ([]*Journey, int, error) {
	return s.journeys.ListJourneys(ctx, limit, offset)
}

func (s *Service) ListJourneysByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Journey, int, error) {
	return s.journeys.ListJourneysByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListActiveJourneys(ctx context.Context) ([]*Journey, error) {
	return s.journeys.ListActiveJourneys(ctx)
}

// AddStageInput carries the request to append a stage to a journey.
type AddStageInput struct {
	StageName string     `json:"stage_name"`
	Status    string     `json:"status"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
}

func (s *Service) AddStage(ctx context.Context, journeyID uuid.UUID, in AddStageInput) (*Stage, error) {
	if strings.TrimSpace(in.StageName) == "" {
		return nil, ErrMissingStageName
	}
	if in.Status == "" {
		in.Status = StagePending
	}
	if !ValidStageStatus(in.Status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStageStatus, in.Status)
	}

	now := time.Now().UTC()
	st := &Stage{
		JourneyID: journeyID,
		StageName: strings.TrimSpace(in.StageName),
		Status:    in.Status,
		DueDate:   in.DueDate,
		Notes:     in.Notes,
		CreatedAt: now,
	}
	if st.Status == StageCompleted {
		st.CompletedAt = &now
	}

	err := s.journeys.Transact(ctx, func(ctx context.Context) error {
		j, err := s.journeys.GetJourney(ctx, journeyID)
		if err != nil {
			return err
		}
		if err := s.journeys.AddStage(ctx, st); err != nil {
			return fmt.Errorf("add stage: %w", err)
		}
		j.Stages = append(j.Stages, st)
		return s.journeys.UpdateJourneyStatus(ctx, journeyID, DerivedStatus(j))
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// UpdateStageInput carries a partial stage update. Nil fields are unchanged.
type UpdateStageInput struct {
	Status  *string    `json:"status,omitempty"`
	DueDate *time.Time `json:"due_date,omitempty"`
	Notes   *string    `json:"notes,omitempty"`
}

// UpdateStage applies a partial update to a stage and recomputes the owning
// journey's derived status in the same transaction. Moving a stage to
// completed stamps CompletedAt; moving it away clears the stamp.
func (s *Service) UpdateStage(ctx context.Context, stageID uuid.UUID, in UpdateStageInput) (*Stage, error) {
	if in.Status != nil && !ValidStageStatus(*in.Status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStageStatus, *in.Status)
	}

	var updated *Stage
	err := s.journeys.Transact(ctx, func(ctx context.Context) error {
		st, err := s.journeys.GetStage(ctx, stageID)
		if err != nil {
			return err
		}

		if in.Status != nil {
			switch {
			case *in.Status == StageCompleted && st.CompletedAt == nil:
				now := time.Now().UTC()
				st.CompletedAt = &now
			case *in.Status != StageCompleted:
				st.CompletedAt = nil
			}
			st.Status = *in.Status
		}
		if in.DueDate != nil {
			st.DueDate = in.DueDate
		}
		if in.Notes != nil {
			st.Notes = in.Notes
		}

		if err := s.journeys.UpdateStage(ctx, st); err != nil {
			return fmt.Errorf("update stage: %w", err)
		}

		j, err := s.journeys.GetJourney(ctx, st.JourneyID)
		if err != nil {
			return err
		}
		if err := s.journeys.UpdateJourneyStatus(ctx, j.ID, DerivedStatus(j)); err != nil {
			return fmt.Errorf("recompute journey status: %w", err)
		}

		updated = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AddProgressNote appends an immutable annotation to a stage. It never
// touches the stage's status.
func (s *Service) AddProgressNote(ctx context.Context, patientID, stageID uuid.UUID, description, responsibleProfessional string) (*ProgressNote, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrMissingDescription
	}
	if strings.TrimSpace(responsibleProfessional) == "" {
		return nil, ErrMissingProfessional
	}
	if _, err := s.journeys.GetStage(ctx, stageID); err != nil {
		return nil, err
	}

	n := &ProgressNote{
		StageID:                 stageID,
		PatientID:               patientID,
		Description:             strings.TrimSpace(description),
		ResponsibleProfessional: responsibleProfessional,
		EvolutionAt:             time.Now().UTC(),
	}
	if err := s.journeys.AddProgressNote(ctx, n); err != nil {
		return nil, fmt.Errorf("add progress note: %w", err)
	}
	return n, nil
}

func (s *Service) ListProgressNotes(ctx context.Context, stageID uuid.UUID) ([]*ProgressNote, error) {
	if _, err := s.journeys.GetStage(ctx, stageID); err != nil {
		return nil, err
	}
	return s.journeys.ListProgressNotes(ctx, stageID)
}

func (s *Service) ListProgressNotesByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*ProgressNote, int, error) {
	return s.journeys.ListProgressNotesByPatient(ctx, patientID, limit, offset)
}
