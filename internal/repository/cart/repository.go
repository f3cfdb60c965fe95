package cart

import (
	"context"

	"toystore/internal/domain"
)

// Repository persists session-bound carts. The cart row is created lazily on
// the first add; both add operations aggregate onto an existing line.
type Repository interface {
	Get(ctx context.Context, id string) (*domain.Cart, error)
	AddProductLine(ctx context.Context, cartID string, variant domain.Variant, quantity int) error
	AddGiftCardLine(ctx context.Context, cartID string, faceValueCents int64, quantity int) error
	UpdateQuantity(ctx context.Context, cartID, lineID string, quantity int) error
	RemoveLine(ctx context.Context, cartID, lineID string) error
	Clear(ctx context.Context, cartID string) error
}
