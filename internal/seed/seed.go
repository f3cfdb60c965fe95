// Package seed loads a small demo catalog for manual testing.
package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"toystore/internal/domain"
	productrepo "toystore/internal/repository/product"
)

type variantSeed struct {
	SKU        string
	Name       string
	Options    map[string]string
	PriceCents int64
	SalePrice  int64
	Stock      int
}

type productSeed struct {
	Slug        string
	Name        string
	Description string
	Variants    []variantSeed
}

var catalog = []productSeed{
	{
		Slug:        "wooden-train-set",
		Name:        "Wooden Train Set",
		Description: "A 24-piece beechwood train with magnetic couplings.",
		Variants: []variantSeed{
			{SKU: "TRAIN-24", Name: "24 pieces", Options: map[string]string{"size": "24"}, PriceCents: 3499, Stock: 12},
			{SKU: "TRAIN-48", Name: "48 pieces", Options: map[string]string{"size": "48"}, PriceCents: 5999, Stock: 4},
		},
	},
	{
		Slug:        "plush-octopus",
		Name:        "Plush Octopus",
		Description: "A reversible plush octopus in two colourways.",
		Variants: []variantSeed{
			{SKU: "OCTO-BLUE", Name: "Blue", Options: map[string]string{"colour": "blue"}, PriceCents: 1899, Stock: 30},
			{SKU: "OCTO-PINK", Name: "Pink", Options: map[string]string{"colour": "pink"}, PriceCents: 1899, SalePrice: 1499, Stock: 2},
		},
	},
	{
		Slug:        "marble-run",
		Name:        "Marble Run",
		Description: "Clear-tube marble run with 60 build pieces.",
		Variants: []variantSeed{
			{SKU: "MARBLE-60", Name: "Standard", PriceCents: 4299, Stock: 0},
		},
	},
	{
		Slug:        "robot-kit",
		Name:        "Build-A-Bot Robot Kit",
		Description: "Screwdriver-only robot kit, no soldering required.",
		Variants: []variantSeed{
			{SKU: "ROBOT-KIT", Name: "Standard", PriceCents: 7999, Stock: 8},
		},
	},
}

// Apply upserts the demo catalog. Safe to run repeatedly; slugs and SKUs are
// the conflict keys.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	repo := productrepo.NewPostgres(pool, nil)

	for _, p := range catalog {
		created, err := repo.UpsertProduct(ctx, domain.Product{
			Slug:        p.Slug,
			Name:        p.Name,
			Description: p.Description,
		})
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Slug, err)
		}
		for _, v := range p.Variants {
			variant := domain.Variant{
				ProductID:  created.ID,
				SKU:        v.SKU,
				Name:       v.Name,
				Options:    v.Options,
				PriceCents: v.PriceCents,
				Stock:      v.Stock,
			}
			if v.SalePrice > 0 {
				sale := v.SalePrice
				variant.SalePriceCents = &sale
			}
			if _, err := repo.UpsertVariant(ctx, variant); err != nil {
				return fmt.Errorf("upsert variant %s: %w", v.SKU, err)
			}
		}
	}
	return nil
}
