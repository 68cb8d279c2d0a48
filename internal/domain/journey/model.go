package journey

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Stage statuses.
const (
	StagePending    = "pending"
	StageInProgress = "in_progress"
	StageCompleted  = "completed"
)

// Journey statuses. A journey's status is derived from its stages and is
// never set independently of them.
const (
	JourneyActive    = "active"
	JourneyCompleted = "completed"
)

var validStageStatuses = map[string]bool{
	StagePending: true, StageInProgress: true, StageCompleted: true,
}

// ValidStageStatus reports whether s is one of the three allowed stage statuses.
func ValidStageStatus(s string) bool { return validStageStatuses[s] }

// Stage maps to the journey_stage table. One discrete step in a patient's
// journey, with its own status and deadline.
//
// Invariant: CompletedAt is non-nil if and only if Status == completed.
type Stage struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	JourneyID     uuid.UUID      `db:"journey_id" json:"journey_id"`
	StageName     string         `db:"stage_name" json:"stage_name"`
	Status        string         `db:"status" json:"status"`
	DueDate       *time.Time     `db:"due_date" json:"due_date,omitempty"`
	CompletedAt   *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	Notes         *string        `db:"notes" json:"notes,omitempty"`
	ProgressNotes []ProgressNote `db:"-" json:"progress_notes,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// ProgressNote maps to the progress_note table. An immutable, timestamped
// annotation appended to a stage; there is no update or delete operation.
// PatientID is denormalized so notes can be queried across stages.
type ProgressNote struct {
	ID                      uuid.UUID `db:"id" json:"id"`
	StageID                 uuid.UUID `db:"stage_id" json:"stage_id"`
	PatientID               uuid.UUID `db:"patient_id" json:"patient_id"`
	Description             string    `db:"description" json:"description"`
	ResponsibleProfessional string    `db:"responsible_professional" json:"responsible_professional"`
	EvolutionAt             time.Time `db:"evolution_at" json:"evolution_at"`
}

// Journey maps to the journey table. A patient's tracked progression through
// an ordered set of stages. The journey references the patient by id only;
// PatientName is filled in for display and never persisted here.
type Journey struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	PatientName string    `db:"-" json:"patient_name,omitempty"`
	Title       string    `db:"title" json:"title"`
	Status      string    `db:"status" json:"status"`
	Stages      []*Stage  `db:"-" json:"stages"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// IsCompleted reports whether the stage is completed.
func IsCompleted(s *Stage) bool { return s.Status == StageCompleted }

// IsDelayed reports whether a non-completed stage has a due date in the past
// relative to now.
func IsDelayed(s *Stage, now time.Time) bool {
	return s.Status != StageCompleted && s.DueDate != nil && s.DueDate.Before(now)
}

// DerivedStatus computes the journey status from stage data: completed when
// every stage is completed, active otherwise. Journeys with no stages are
// active by convention — zero progress, not done.
func DerivedStatus(j *Journey) string {
	if len(j.Stages) == 0 {
		return JourneyActive
	}
	for _, s := range j.Stages {
		if !IsCompleted(s) {
			return JourneyActive
		}
	}
	return JourneyCompleted
}

// SortedStages returns the journey's stages ordered by CreatedAt ascending,
// without mutating the journey.
func SortedStages(j *Journey) []*Stage {
	stages := make([]*Stage, len(j.Stages))
	copy(stages, j.Stages)
	sort.SliceStable(stages, func(a, b int) bool {
		return stages[a].CreatedAt.Before(stages[b].CreatedAt)
	})
	return stages
}
