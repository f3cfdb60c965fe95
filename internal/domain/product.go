package domain

import "time"

type Product struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	Variants    []Variant `json:"variants,omitempty"`
}

// Variant is a sellable SKU: a product plus a chosen set of options.
type Variant struct {
	ID             string            `json:"id"`
	ProductID      string            `json:"productId"`
	SKU            string            `json:"sku"`
	Name           string            `json:"name"`
	Options        map[string]string `json:"options,omitempty"`
	PriceCents     int64             `json:"priceCents"`
	SalePriceCents *int64            `json:"salePriceCents,omitempty"`
	Stock          int               `json:"stock"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// CurrentPriceCents returns the sale price when one is set.
func (v Variant) CurrentPriceCents() int64 {
	if v.SalePriceCents != nil {
		return *v.SalePriceCents
	}
	return v.PriceCents
}
