package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	patients Repository
}

func NewService(patients Repository) *Service {
	return &Service{patients: patients}
}

type CreateInput struct {
	FullName  string     `json:"full_name"`
	Email     *string    `json:"email,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Patient, error) {
	if strings.TrimSpace(in.FullName) == "" {
		return nil, ErrMissingFullName
	}
	p := &Patient{
		FullName:  strings.TrimSpace(in.FullName),
		Email:     in.Email,
		Phone:     in.Phone,
		BirthDate: in.BirthDate,
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, search, limit, offset)
}

type UpdateInput struct {
	FullName  *string    `json:"full_name,omitempty"`
	Email     *string    `json:"email,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Patient, error) {
	p, err := s.patients.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.FullName != nil {
		if strings.TrimSpace(*in.FullName) == "" {
			return nil, ErrMissingFullName
		}
		p.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Email != nil {
		p.Email = in.Email
	}
	if in.Phone != nil {
		p.Phone = in.Phone
	}
	if in.BirthDate != nil {
		p.BirthDate = in.BirthDate
	}
	if err := s.patients.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return p, nil
}

// NamesByID resolves display names for a batch of patient IDs. Unknown IDs
// are simply absent from the result.
func (s *Service) NamesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	return s.patients.NamesByID(ctx, ids)
}
