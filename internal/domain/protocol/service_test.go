package protocol

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct{ store map[uuid.UUID]*Protocol }

func newMockRepo() *mockRepo { return &mockRepo{store: make(map[uuid.UUID]*Protocol)} }

func (m *mockRepo) Create(_ context.Context, p *Protocol) error {
	p.ID = uuid.New(); m.store[p.ID] = p; return nil
}
func (m *mockRepo) Get(_ context.Context, id uuid.UUID) (*Protocol, error) {
	p, ok := m.store[id]; if !ok { return nil, ErrNotFound }; return p, nil
}
func (m *mockRepo) List(_ context.Context, activeOnly bool, limit, offset int) ([]*Protocol, int, error) {
	var r []*Protocol
	for _, p := range m.store { if !activeOnly || p.Active { r = append(r, p) } }
	return r, len(r), nil
}
func (m *mockRepo) Update(_ context.Context, p *Protocol) error {
	if _, ok := m.store[p.ID]; !ok { return ErrNotFound }; m.store[p.ID] = p; return nil
}
func (m *mockRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	p, ok := m.store[id]; if !ok { return ErrNotFound }; p.Active = false; return nil
}

func TestCreate_PositionsFollowInputOrder(t *testing.T) {
	svc := NewService(newMockRepo())
	p, err := svc.Create(context.Background(), CreateInput{
		Name: "Surgical follow-up",
		Stages: []StageInput{
			{StageName: "consultation", DueOffsetDays: 2},
			{StageName: "budget", DueOffsetDays: 7},
			{StageName: "surgery", DueOffsetDays: 30},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Active {
		t.Error("new protocols must be active")
	}
	for i, s := range p.Stages {
		if s.Position != i {
			t.Errorf("stage %q: expected position %d, got %d", s.StageName, i, s.Position)
		}
	}
}

func TestCreate_MissingName(t *testing.T) {
	svc := NewService(newMockRepo())
	_, err := svc.Create(context.Background(), CreateInput{Name: "  "})
	if !errors.Is(err, ErrMissingName) {
		t.Fatalf("expected ErrMissingName, got %v", err)
	}
}

func TestCreate_EmptyStageName(t *testing.T) {
	svc := NewService(newMockRepo())
	_, err := svc.Create(context.Background(), CreateInput{
		Name:   "Bad",
		Stages: []StageInput{{StageName: ""}},
	})
	if !errors.Is(err, ErrEmptyStageName) {
		t.Fatalf("expected ErrEmptyStageName, got %v", err)
	}
}

func TestCreate_NegativeOffset(t *testing.T) {
	svc := NewService(newMockRepo())
	_, err := svc.Create(context.Background(), CreateInput{
		Name:   "Bad",
		Stages: []StageInput{{StageName: "x", DueOffsetDays: -1}},
	})
	if !errors.Is(err, ErrNegativeOffset) {
		t.Fatalf("expected ErrNegativeOffset, got %v", err)
	}
}

func TestUpdate_ReplacesStages(t *testing.T) {
	svc := NewService(newMockRepo())
	p, _ := svc.Create(context.Background(), CreateInput{
		Name:   "Follow-up",
		Stages: []StageInput{{StageName: "consultation", DueOffsetDays: 2}},
	})

	updated, err := svc.Update(context.Background(), p.ID, UpdateInput{
		Stages: []StageInput{
			{StageName: "pre-op", DueOffsetDays: 1},
			{StageName: "post-op", DueOffsetDays: 14},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated.Stages) != 2 || updated.Stages[0].StageName != "pre-op" {
		t.Errorf("stage list not replaced: %+v", updated.Stages)
	}
	if updated.Name != "Follow-up" {
		t.Errorf("name must be unchanged, got %q", updated.Name)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc := NewService(newMockRepo())
	_, err := svc.Update(context.Background(), uuid.New(), UpdateInput{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeactivate_HidesFromActiveList(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	p, _ := svc.Create(context.Background(), CreateInput{Name: "Old pathway"})

	if err := svc.Deactivate(context.Background(), p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active, _, _ := svc.List(context.Background(), true, 20, 0)
	if len(active) != 0 {
		t.Errorf("expected no active protocols, got %d", len(active))
	}
	all, _, _ := svc.List(context.Background(), false, 20, 0)
	if len(all) != 1 {
		t.Errorf("deactivated protocol must remain listable, got %d", len(all))
	}
}
