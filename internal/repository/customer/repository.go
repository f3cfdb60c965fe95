package customer

import (
	"context"

	"toystore/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	CreateLazy(ctx context.Context) (*domain.Customer, error)
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	UpdateProfile(ctx context.Context, c domain.Customer) error
	Promote(ctx context.Context, id, email, passwordHash string) (*domain.Customer, error)

	ListShippingAddresses(ctx context.Context, customerID string) ([]domain.CustomerAddress, error)
	GetAddress(ctx context.Context, id string) (*domain.CustomerAddress, error)
	GetShippingAddressByNickname(ctx context.Context, customerID, nickname string) (*domain.CustomerAddress, error)
	GetBillingAddress(ctx context.Context, customerID string) (*domain.CustomerAddress, error)
	SaveShippingAddress(ctx context.Context, a domain.CustomerAddress) (*domain.CustomerAddress, error)
	SaveBillingAddress(ctx context.Context, a domain.CustomerAddress) (*domain.CustomerAddress, error)
	DeleteAddress(ctx context.Context, id string) error
}
