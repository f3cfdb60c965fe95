package product

import (
	"context"

	"toystore/internal/domain"
)

type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetVariant(ctx context.Context, id string) (*domain.Variant, error)
	GetVariants(ctx context.Context, ids []string) (map[string]domain.Variant, error)
	UpsertProduct(ctx context.Context, p domain.Product) (*domain.Product, error)
	UpsertVariant(ctx context.Context, v domain.Variant) (*domain.Variant, error)
}
