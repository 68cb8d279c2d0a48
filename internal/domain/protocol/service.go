package protocol

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	protocols Repository
}

func NewService(protocols Repository) *Service {
	return &Service{protocols: protocols}
}

// StageInput describes one template entry in creation order.
type StageInput struct {
	StageName     string `json:"stage_name"`
	DueOffsetDays int    `json:"due_offset_days"`
}

type CreateInput struct {
	Name        string       `json:"name"`
	Description *string      `json:"description,omitempty"`
	Stages      []StageInput `json:"stages"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Protocol, error) {
	stages, err := buildStages(in.Stages)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrMissingName
	}

	p := &Protocol{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Active:      true,
		Stages:      stages,
	}
	if err := s.protocols.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create protocol: %w", err)
	}
	return p, nil
}

func buildStages(in []StageInput) ([]ProtocolStage, error) {
	stages := make([]ProtocolStage, 0, len(in))
	for i, st := range in {
		if strings.TrimSpace(st.StageName) == "" {
			return nil, fmt.Errorf("%w: position %d", ErrEmptyStageName, i)
		}
		if st.DueOffsetDays < 0 {
			return nil, fmt.Errorf("%w: %q", ErrNegativeOffset, st.StageName)
		}
		stages = append(stages, ProtocolStage{
			StageName:     strings.TrimSpace(st.StageName),
			DueOffsetDays: st.DueOffsetDays,
			Position:      i,
		})
	}
	return stages, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Protocol, error) {
	return s.protocols.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Protocol, int, error) {
	return s.protocols.List(ctx, activeOnly, limit, offset)
}

type UpdateInput struct {
	Name        *string      `json:"name,omitempty"`
	Description *string      `json:"description,omitempty"`
	Active      *bool        `json:"active,omitempty"`
	Stages      []StageInput `json:"stages,omitempty"`
}

// Update applies a partial update. A non-nil Stages slice replaces the
// whole stage list; journeys already seeded from this protocol keep their
// stages as created.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Protocol, error) {
	p, err := s.protocols.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, ErrMissingName
		}
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = in.Description
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	if in.Stages != nil {
		stages, err := buildStages(in.Stages)
		if err != nil {
			return nil, err
		}
		p.Stages = stages
	}
	if err := s.protocols.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update protocol: %w", err)
	}
	return p, nil
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.protocols.Deactivate(ctx, id)
}
