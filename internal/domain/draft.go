package domain

// GiftCard is a tendered card with the balance read from the gateway.
type GiftCard struct {
	Number       string `json:"number"`
	BalanceCents int64  `json:"balanceCents"`
}

// DraftOrder is the session-scoped projection of an in-progress checkout.
// It is never persisted; every total is derived on demand.
type DraftOrder struct {
	Items               []CartLine
	ShippingAddress     Address
	BillingAddress      Address
	Contact             Contact
	ShippingChargeCents int64
	GiftCards           []GiftCard
}

func (d *DraftOrder) MerchandiseTotalCents() int64 {
	var total int64
	for _, l := range d.Items {
		total += l.LineTotalCents()
	}
	return total
}

// TaxableTotalCents is the base the tax calculator applies its rates to.
func (d *DraftOrder) TaxableTotalCents() int64 {
	return d.MerchandiseTotalCents() + d.ShippingChargeCents
}

// TotalCents is the taxable total plus the supplied tax lines.
func (d *DraftOrder) TotalCents(taxes []TaxLine) int64 {
	total := d.TaxableTotalCents()
	for _, t := range taxes {
		total += t.AmountCents
	}
	return total
}

// GiftCardAllocations splits the order total across the tendered cards in
// insertion order, each absorbing min(balance, remaining). The second return
// is the balance remaining for the credit card.
func (d *DraftOrder) GiftCardAllocations(totalCents int64) ([]int64, int64) {
	allocs := make([]int64, len(d.GiftCards))
	remaining := totalCents
	for i, gc := range d.GiftCards {
		a := gc.BalanceCents
		if a > remaining {
			a = remaining
		}
		allocs[i] = a
		remaining -= a
	}
	return allocs, remaining
}

// BalanceRemainingCents is the portion of the total not covered by gift cards.
func (d *DraftOrder) BalanceRemainingCents(taxes []TaxLine) int64 {
	_, remaining := d.GiftCardAllocations(d.TotalCents(taxes))
	return remaining
}
