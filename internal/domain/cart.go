package domain

import (
	"fmt"
	"time"
)

// LineKind tags the two cart line variants.
type LineKind string

const (
	LineProduct  LineKind = "product"
	LineGiftCard LineKind = "gift_card"
)

// CartLine is either a product line (VariantID set) or a gift-card line
// (FaceValueCents set). Both satisfy the pricing and display accessors.
type CartLine struct {
	ID             string    `json:"id"`
	CartID         string    `json:"cartId"`
	Kind           LineKind  `json:"kind"`
	VariantID      string    `json:"variantId,omitempty"`
	FaceValueCents int64     `json:"faceValueCents,omitempty"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unitPriceCents"`
	DisplayName    string    `json:"displayName"`
	AddedAt        time.Time `json:"addedAt"`
}

func (l CartLine) LineTotalCents() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}

// GiftCardDisplayName renders the conventional label for a denomination line.
func GiftCardDisplayName(faceValueCents int64) string {
	return fmt.Sprintf("Gift Card ($%d.%02d)", faceValueCents/100, faceValueCents%100)
}

// Cart is the session-bound set of lines, presented in insertion order.
type Cart struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"createdAt"`
	Lines     []CartLine `json:"lines,omitempty"`
}

func (c *Cart) SubtotalCents() int64 {
	var total int64
	for _, l := range c.Lines {
		total += l.LineTotalCents()
	}
	return total
}

// DistinctCount is the sum of line quantities, shown as the cart badge.
func (c *Cart) DistinctCount() int {
	var n int
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// ProductLine returns the line holding the given variant, if any.
func (c *Cart) ProductLine(variantID string) *CartLine {
	for i := range c.Lines {
		if c.Lines[i].Kind == LineProduct && c.Lines[i].VariantID == variantID {
			return &c.Lines[i]
		}
	}
	return nil
}
