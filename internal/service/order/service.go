// Package order exposes the post-commit lifecycle: reading orders back and
// cancelling them while cancellation is still allowed.
package order

import (
	"context"
	"io"
	"log"

	"toystore/internal/domain"
	"toystore/internal/events"
)

type repository interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	Cancel(ctx context.Context, orderID string) (*domain.Order, bool, error)
	SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
}

type Service struct {
	repo   repository
	bus    *events.Bus
	logger *log.Logger
}

func New(repo repository, bus *events.Bus, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, bus: bus, logger: logger}
}

// Get returns the order only to its owner; anyone else gets ErrForbidden.
func (s *Service) Get(ctx context.Context, orderID, customerID string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if customerID == "" || !order.OwnedBy(customerID) {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

// Cancel flips the order to cancelled, restores stock and publishes the
// cancellation event. Repeating the call on a cancelled order is a no-op and
// publishes nothing.
func (s *Service) Cancel(ctx context.Context, orderID, customerID string) (*domain.Order, error) {
	order, err := s.Get(ctx, orderID, customerID)
	if err != nil {
		return nil, err
	}
	if order.Status == domain.OrderShipped {
		return nil, domain.ErrNotCancellable
	}

	cancelled, changed, err := s.repo.Cancel(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if changed {
		s.bus.Publish(ctx, domain.Event{Kind: domain.EventOrderCancelled, Order: cancelled})
		s.logger.Printf("order: cancelled order=%s customer=%s", orderID, customerID)
	}
	return cancelled, nil
}

// SetStatus advances fulfilment (processed, shipped). Back-office flows use
// it; the storefront never does.
func (s *Service) SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	return s.repo.SetStatus(ctx, orderID, status)
}
