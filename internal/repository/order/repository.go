package order

import (
	"context"

	"toystore/internal/domain"
)

// CommitInput carries everything needed to turn a draft into an order.
type CommitInput struct {
	CartID     string
	CustomerID *string
	Draft      domain.DraftOrder
	Taxes      []domain.TaxLine
}

// AuthorizeFunc runs the payment authorizations. It is invoked inside the
// commit transaction, after the stock re-check and before any row is written,
// so a gateway rejection rolls the whole commit back.
type AuthorizeFunc func(ctx context.Context) (*domain.CreditCardPayment, []domain.GiftCardPayment, error)

type Repository interface {
	// Commit atomically persists the draft: stock re-check under row locks,
	// payment authorization, order rows, stock decrement, cart clear.
	Commit(ctx context.Context, in CommitInput, authorize AuthorizeFunc) (*domain.Order, error)
	// Cancel flips the order to cancelled and restores stock. The second
	// return is false when the order was already cancelled (idempotent).
	Cancel(ctx context.Context, orderID string) (*domain.Order, bool, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
}
