package protocol

import (
	"time"

	"github.com/google/uuid"
)

// Protocol is a reusable care pathway template. Instantiating it against a
// patient seeds a journey with one stage per template entry.
type Protocol struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description *string         `json:"description,omitempty" db:"description"`
	Active      bool            `json:"active" db:"active"`
	Stages      []ProtocolStage `json:"stages" db:"-"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// ProtocolStage is one entry of a protocol. Position fixes the order stages
// are seeded in; DueOffsetDays is relative to the instantiation date.
type ProtocolStage struct {
	ID            uuid.UUID `json:"id" db:"id"`
	ProtocolID    uuid.UUID `json:"protocol_id" db:"protocol_id"`
	StageName     string    `json:"stage_name" db:"stage_name"`
	DueOffsetDays int       `json:"due_offset_days" db:"due_offset_days"`
	Position      int       `json:"position" db:"position"`
}
