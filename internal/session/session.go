// Package session holds the per-visitor state: cart binding, identity mode,
// and the checkout workflow record.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"

	"toystore/internal/domain"
)

// ErrNotFound indicates the session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Session is the unit the store persists. Everything in it is owned by one
// visitor; no cross-session sharing happens.
type Session struct {
	ID           string                `json:"id"`
	CartID       string                `json:"cartId,omitempty"`
	IdentityMode domain.IdentityMode   `json:"identityMode"`
	CustomerID   string                `json:"customerId,omitempty"`
	Checkout     *domain.CheckoutState `json:"checkout,omitempty"`
}

// New creates an empty anonymous session with a random id.
func New() (*Session, error) {
	id, err := randomID()
	if err != nil {
		return nil, err
	}
	return &Session{ID: id, IdentityMode: domain.IdentityAnonymous}, nil
}

// Store persists sessions. Per-session writes are serialized by the caller;
// the store only needs to be safe for concurrent use across sessions.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

func randomID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
