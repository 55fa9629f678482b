package services

import (
	"context"
	"fmt"
	"log/slog"

	"pipeline/internal/amqp"
	"pipeline/internal/core"
)

// DealStore persists deals.
type DealStore interface {
	CreateDeal(ctx context.Context, d core.Deal) (core.Deal, error)
	GetDeal(ctx context.Context, id int64) (core.Deal, error)
	ListDeals(ctx context.Context) ([]core.Deal, error)
	UpdateDealStage(ctx context.Context, id int64, stage string) (core.Deal, error)
	DeleteDeal(ctx context.Context, id int64) error
}

// DealPublisher announces deal board changes.
type DealPublisher interface {
	PublishDealChanged(ctx context.Context, ev amqp.DealChanged) error
}

// DealService manages the deal board and publishes a DealChanged event for
// every change.
type DealService struct {
	store  DealStore
	events DealPublisher
}

func NewDealService(store DealStore, events DealPublisher) *DealService {
	return &DealService{store: store, events: events}
}

// Create stores a new deal in the first stage.
func (s *DealService) Create(ctx context.Context, d core.Deal) (core.Deal, error) {
	d.Stage = ""
	d.Normalize()
	if err := d.Validate(); err != nil {
		return core.Deal{}, err
	}
	created, err := s.store.CreateDeal(ctx, d)
	if err != nil {
		return core.Deal{}, fmt.Errorf("create deal: %w", err)
	}
	s.publish(ctx, created.ID, amqp.DealCreated, created.Stage)
	return created, nil
}

// List returns every deal, oldest first.
func (s *DealService) List(ctx context.Context) ([]core.Deal, error) {
	return s.store.ListDeals(ctx)
}

// Board returns the deals grouped by board stage.
func (s *DealService) Board(ctx context.Context) (map[string][]core.Deal, error) {
	deals, err := s.store.ListDeals(ctx)
	if err != nil {
		return nil, err
	}
	return core.GroupByStage(deals), nil
}

// Advance moves a deal to the next stage. Deals in the final stage return
// core.ErrDealFinalStage.
func (s *DealService) Advance(ctx context.Context, id int64) (core.Deal, error) {
	d, err := s.store.GetDeal(ctx, id)
	if err != nil {
		return core.Deal{}, err
	}
	next, err := core.NextStage(d.Stage)
	if err != nil {
		return core.Deal{}, err
	}
	updated, err := s.store.UpdateDealStage(ctx, id, next)
	if err != nil {
		return core.Deal{}, err
	}
	s.publish(ctx, id, amqp.DealAdvanced, next)
	return updated, nil
}

// Delete removes a deal.
func (s *DealService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteDeal(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, id, amqp.DealDeleted, "")
	return nil
}

func (s *DealService) publish(ctx context.Context, id int64, action, stage string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishDealChanged(ctx, amqp.DealChanged{DealID: id, Action: action, Stage: stage}); err != nil {
		slog.ErrorContext(ctx, "Failed to publish deal event", "id", id, "action", action, "error", err)
	}
}
