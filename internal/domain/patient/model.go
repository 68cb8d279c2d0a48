package patient

import (
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	FullName  string     `json:"full_name" db:"full_name"`
	Email     *string    `json:"email,omitempty" db:"email"`
	Phone     *string    `json:"phone,omitempty" db:"phone"`
	BirthDate *time.Time `json:"birth_date,omitempty" db:"birth_date"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}
