package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("patient not found")
	ErrMissingFullName = errors.New("patient full name is required")
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	Get(ctx context.Context, id uuid.UUID) (*Patient, error)
	List(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error)
	Update(ctx context.Context, p *Patient) error
	NamesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}
