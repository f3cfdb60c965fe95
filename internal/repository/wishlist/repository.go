package wishlist

import "context"

// Item is a wishlist entry; Purchased tracks whether a committed order
// covered the variant.
type Item struct {
	ID         string `json:"id"`
	CustomerID string `json:"customerId"`
	VariantID  string `json:"variantId"`
	Purchased  bool   `json:"purchased"`
}

type Repository interface {
	Add(ctx context.Context, customerID, variantID string) (*Item, error)
	List(ctx context.Context, customerID string) ([]Item, error)
	Remove(ctx context.Context, customerID, variantID string) error
	// SetPurchased flips the purchased flag for the customer's entries
	// matching any of the given variants.
	SetPurchased(ctx context.Context, customerID string, variantIDs []string, purchased bool) error
}
