package main

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/mscartozzoni/clinic-api/internal/domain/journey"
	"github.com/mscartozzoni/clinic-api/internal/domain/protocol"
)

type stubProtocolRepo struct{ store map[uuid.UUID]*protocol.Protocol }

func (s *stubProtocolRepo) Create(_ context.Context, p *protocol.Protocol) error {
	p.ID = uuid.New(); s.store[p.ID] = p; return nil
}
func (s *stubProtocolRepo) Get(_ context.Context, id uuid.UUID) (*protocol.Protocol, error) {
	p, ok := s.store[id]; if !ok { return nil, protocol.ErrNotFound }; return p, nil
}
func (s *stubProtocolRepo) List(_ context.Context, _ bool, _, _ int) ([]*protocol.Protocol, int, error) {
	return nil, 0, nil
}
func (s *stubProtocolRepo) Update(_ context.Context, p *protocol.Protocol) error {
	s.store[p.ID] = p; return nil
}
func (s *stubProtocolRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	p, ok := s.store[id]; if !ok { return protocol.ErrNotFound }; p.Active = false; return nil
}

func newAdapter() (*ProtocolAdapter, *stubProtocolRepo) {
	repo := &stubProtocolRepo{store: make(map[uuid.UUID]*protocol.Protocol)}
	return NewProtocolAdapter(protocol.NewService(repo)), repo
}

func TestProtocolAdapter_MapsTemplate(t *testing.T) {
	adapter, repo := newAdapter()
	id := uuid.New()
	repo.store[id] = &protocol.Protocol{
		ID:     id,
		Name:   "Surgical follow-up",
		Active: true,
		Stages: []protocol.ProtocolStage{
			{StageName: "consultation", DueOffsetDays: 2, Position: 0},
			{StageName: "surgery", DueOffsetDays: 30, Position: 1},
		},
	}

	tpl, err := adapter.GetTemplate(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl.Name != "Surgical follow-up" || len(tpl.Stages) != 2 {
		t.Fatalf("unexpected template: %+v", tpl)
	}
	if tpl.Stages[0].StageName != "consultation" || tpl.Stages[1].DueOffsetDays != 30 {
		t.Errorf("stage mapping wrong: %+v", tpl.Stages)
	}
}

func TestProtocolAdapter_UnknownProtocol(t *testing.T) {
	adapter, _ := newAdapter()
	_, err := adapter.GetTemplate(context.Background(), uuid.New())
	if !errors.Is(err, journey.ErrProtocolNotFound) {
		t.Fatalf("expected ErrProtocolNotFound, got %v", err)
	}
}

func TestProtocolAdapter_InactiveProtocolNotInstantiable(t *testing.T) {
	adapter, repo := newAdapter()
	id := uuid.New()
	repo.store[id] = &protocol.Protocol{ID: id, Name: "Retired pathway", Active: false}

	_, err := adapter.GetTemplate(context.Background(), id)
	if !errors.Is(err, journey.ErrProtocolNotFound) {
		t.Fatalf("expected ErrProtocolNotFound for inactive protocol, got %v", err)
	}
}
