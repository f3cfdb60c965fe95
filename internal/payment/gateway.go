// Package payment defines the credit-card gateway contract and a stub
// implementation used outside production.
package payment

import (
	"context"
	"fmt"

	"toystore/internal/domain"
)

// AuthorizeRequest carries everything the gateway needs for an authorization.
// The idempotency key is derived from the checkout session and attempt count
// so a retried submission never double-charges.
type AuthorizeRequest struct {
	CardType       string
	CardNumber     string
	AmountCents    int64
	BillingAddress domain.Address
	IdempotencyKey string
}

// Gateway authorizes credit-card charges and reads gift-card balances.
// Capture is out of scope; committed orders stay in the authorized state.
type Gateway interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (transactionID string, err error)
	GiftCardBalance(ctx context.Context, cardNumber string) (balanceCents int64, err error)
}

// GatewayError surfaces a rejection from the processor.
type GatewayError struct {
	Reason    string
	Retryable bool
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway rejected: %s", e.Reason)
}

const (
	stubTransactionID   = "0000000000"
	stubGiftCardBalance = 1000
)

// StubGateway approves everything. The transaction id and gift-card balance
// are fixed constants.
type StubGateway struct{}

func NewStub() *StubGateway {
	return &StubGateway{}
}

func (g *StubGateway) Authorize(_ context.Context, req AuthorizeRequest) (string, error) {
	if req.AmountCents <= 0 {
		return "", &GatewayError{Reason: "amount must be positive"}
	}
	return stubTransactionID, nil
}

func (g *StubGateway) GiftCardBalance(_ context.Context, _ string) (int64, error) {
	return stubGiftCardBalance, nil
}

// LastFour masks a card number down to the 4-digit token an order stores.
func LastFour(cardNumber string) string {
	if len(cardNumber) < 4 {
		return cardNumber
	}
	return cardNumber[len(cardNumber)-4:]
}
