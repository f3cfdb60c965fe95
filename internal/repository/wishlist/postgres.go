package wishlist

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"toystore/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Add(ctx context.Context, customerID, variantID string) (*Item, error) {
	const q = `
INSERT INTO wishlist_items (customer_id, variant_id)
VALUES ($1, $2)
ON CONFLICT (customer_id, variant_id) DO UPDATE SET variant_id = EXCLUDED.variant_id
RETURNING id::text, purchased
`
	item := Item{CustomerID: customerID, VariantID: variantID}
	if err := r.pool.QueryRow(ctx, q, customerID, variantID).Scan(&item.ID, &item.Purchased); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *postgresRepo) List(ctx context.Context, customerID string) ([]Item, error) {
	const q = `
SELECT id::text, customer_id::text, variant_id::text, purchased
FROM wishlist_items
WHERE customer_id = $1
ORDER BY created_at ASC
`
	rows, err := r.pool.Query(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.CustomerID, &item.VariantID, &item.Purchased); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *postgresRepo) Remove(ctx context.Context, customerID, variantID string) error {
	const q = `DELETE FROM wishlist_items WHERE customer_id = $1 AND variant_id = $2`
	cmd, err := r.pool.Exec(ctx, q, customerID, variantID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) SetPurchased(ctx context.Context, customerID string, variantIDs []string, purchased bool) error {
	if len(variantIDs) == 0 {
		return nil
	}
	const q = `
UPDATE wishlist_items
SET purchased = $1
WHERE customer_id = $2 AND variant_id = ANY($3)
`
	_, err := r.pool.Exec(ctx, q, purchased, customerID, variantIDs)
	return err
}
