package protocol

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Protocol) error
	Get(ctx context.Context, id uuid.UUID) (*Protocol, error)
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Protocol, int, error)
	Update(ctx context.Context, p *Protocol) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}
