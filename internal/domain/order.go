package domain

import "time"

type OrderStatus string

const (
	OrderSubmitted OrderStatus = "submitted"
	OrderProcessed OrderStatus = "processed"
	OrderShipped   OrderStatus = "shipped"
	OrderCancelled OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentAuthorized PaymentStatus = "authorized"
	PaymentCaptured   PaymentStatus = "captured"
	PaymentCancelled  PaymentStatus = "cancelled"
)

// TaxLine reproduces one row of the tax breakdown shown at checkout.
type TaxLine struct {
	Name        string `json:"name"`
	RatePercent string `json:"ratePercent"`
	AmountCents int64  `json:"amountCents"`
}

// OrderAddress is an immutable copy of a checkout address owned by an order.
type OrderAddress struct {
	ID      string `json:"id"`
	OrderID string `json:"orderId"`
	Address
}

// OrderItem snapshots a cart line at the moment of commit.
type OrderItem struct {
	ID             string   `json:"id"`
	OrderID        string   `json:"orderId"`
	Kind           LineKind `json:"kind"`
	VariantID      string   `json:"variantId,omitempty"`
	SKU            string   `json:"sku,omitempty"`
	DisplayName    string   `json:"displayName"`
	Quantity       int      `json:"quantity"`
	UnitPriceCents int64    `json:"unitPriceCents"`
}

func (i OrderItem) TotalCents() int64 {
	return i.UnitPriceCents * int64(i.Quantity)
}

// CreditCardPayment stores only the gateway transaction id and a masked token.
type CreditCardPayment struct {
	ID            string        `json:"id"`
	OrderID       string        `json:"orderId"`
	TransactionID string        `json:"transactionId"`
	AmountCents   int64         `json:"amountCents"`
	CardType      string        `json:"cardType"`
	LastFour      string        `json:"lastFour"`
	Status        PaymentStatus `json:"status"`
}

type GiftCardPayment struct {
	ID          string        `json:"id"`
	OrderID     string        `json:"orderId"`
	CardNumber  string        `json:"cardNumber"`
	AmountCents int64         `json:"amountCents"`
	Status      PaymentStatus `json:"status"`
}

// Order is the persisted result of a committed draft. Everything except the
// two status columns is frozen at commit time.
type Order struct {
	ID                    string             `json:"id"`
	CustomerID            *string            `json:"customerId,omitempty"`
	Contact               Contact            `json:"contact"`
	Status                OrderStatus        `json:"status"`
	PaymentStatus         PaymentStatus      `json:"paymentStatus"`
	ShippingAddress       OrderAddress       `json:"shippingAddress"`
	BillingAddress        OrderAddress       `json:"billingAddress"`
	Items                 []OrderItem        `json:"items"`
	Taxes                 []TaxLine          `json:"taxes"`
	CreditCard            *CreditCardPayment `json:"creditCard,omitempty"`
	GiftCards             []GiftCardPayment  `json:"giftCards,omitempty"`
	MerchandiseTotalCents int64              `json:"merchandiseTotalCents"`
	ShippingChargeCents   int64              `json:"shippingChargeCents"`
	TotalCents            int64              `json:"totalCents"`
	CreatedAt             time.Time          `json:"createdAt"`
	UpdatedAt             time.Time          `json:"updatedAt"`
}

// PaymentTotalCents sums all tenders; equals TotalCents at commit.
func (o *Order) PaymentTotalCents() int64 {
	var total int64
	if o.CreditCard != nil {
		total += o.CreditCard.AmountCents
	}
	for _, gc := range o.GiftCards {
		total += gc.AmountCents
	}
	return total
}

// Cancellable reports whether the cancel path may run.
func (o *Order) Cancellable() bool {
	return o.Status == OrderSubmitted || o.Status == OrderProcessed
}

// OwnedBy reports whether the order belongs to the given customer.
func (o *Order) OwnedBy(customerID string) bool {
	return o.CustomerID != nil && *o.CustomerID == customerID
}
