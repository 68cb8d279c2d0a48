package journey

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateJourney(ctx context.Context, j *Journey) error
	GetJourney(ctx context.Context, id uuid.UUID) (*Journey, error)
	ListJourneys(ctx context.Context, limit, offset int) ([]*Journey, int, error)
	ListJourneysByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Journey, int, error)
	ListActiveJourneys(ctx context.Context) ([]*Journey, error)
	UpdateJourneyStatus(ctx context.Context, id uuid.UUID, status string) error

	AddStage(ctx context.Context, s *Stage) error
	GetStage(ctx context.Context, id uuid.UUID) (*Stage, error)
	UpdateStage(ctx context.Context, s *Stage) error

	AddProgressNote(ctx context.Context, n *ProgressNote) error
	ListProgressNotes(ctx context.Context, stageID uuid.UUID) ([]*ProgressNote, error)
	ListProgressNotesByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*ProgressNote, int, error)

	// Transact runs fn atomically: a stage write and the derived journey
	// status recomputation either land together or not at all.
	Transact(ctx context.Context, fn func(ctx context.Context) error) error
}
