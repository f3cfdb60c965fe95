package product

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"toystore/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const variantColumns = `id::text, product_id::text, sku, name, options, price_cents, sale_price_cents, stock, created_at`

func (r *postgresRepo) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const q = `
SELECT id::text, slug, name, description, created_at
FROM products
ORDER BY created_at DESC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Printf("product repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		variants, err := r.variantsForProduct(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Variants = variants
	}
	return result, nil
}

func (r *postgresRepo) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	const q = `
SELECT id::text, slug, name, description, created_at
FROM products
WHERE id = $1
`
	var p domain.Product
	err := r.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get id=%s error=%v", id, err)
		return nil, err
	}
	variants, err := r.variantsForProduct(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Variants = variants
	return &p, nil
}

func (r *postgresRepo) GetVariant(ctx context.Context, id string) (*domain.Variant, error) {
	q := `SELECT ` + variantColumns + ` FROM variants WHERE id = $1`
	var v domain.Variant
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.Options, &v.PriceCents, &v.SalePriceCents, &v.Stock, &v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get variant id=%s error=%v", id, err)
		return nil, err
	}
	return &v, nil
}

func (r *postgresRepo) GetVariants(ctx context.Context, ids []string) (map[string]domain.Variant, error) {
	if len(ids) == 0 {
		return map[string]domain.Variant{}, nil
	}
	q := `SELECT ` + variantColumns + ` FROM variants WHERE id = ANY($1)`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]domain.Variant, len(ids))
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(
			&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.Options, &v.PriceCents, &v.SalePriceCents, &v.Stock, &v.CreatedAt,
		); err != nil {
			return nil, err
		}
		result[v.ID] = v
	}
	return result, rows.Err()
}

func (r *postgresRepo) UpsertProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (slug, name, description)
VALUES ($1, $2, $3)
ON CONFLICT (slug) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description
RETURNING id::text, created_at
`
	res := p
	if err := r.pool.QueryRow(ctx, q, p.Slug, p.Name, p.Description).Scan(&res.ID, &res.CreatedAt); err != nil {
		r.logger.Printf("product repo: upsert slug=%s error=%v", p.Slug, err)
		return nil, err
	}
	return &res, nil
}

func (r *postgresRepo) UpsertVariant(ctx context.Context, v domain.Variant) (*domain.Variant, error) {
	const q = `
INSERT INTO variants (product_id, sku, name, options, price_cents, sale_price_cents, stock)
VALUES ($1, $2, $3, COALESCE($4, '{}'::jsonb), $5, $6, $7)
ON CONFLICT (sku) DO UPDATE SET
    name = EXCLUDED.name,
    options = EXCLUDED.options,
    price_cents = EXCLUDED.price_cents,
    sale_price_cents = EXCLUDED.sale_price_cents,
    stock = EXCLUDED.stock
RETURNING id::text, created_at
`
	res := v
	err := r.pool.QueryRow(ctx, q, v.ProductID, v.SKU, v.Name, v.Options, v.PriceCents, v.SalePriceCents, v.Stock).
		Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Printf("product repo: upsert variant sku=%s error=%v", v.SKU, err)
		return nil, err
	}
	return &res, nil
}

func (r *postgresRepo) variantsForProduct(ctx context.Context, productID string) ([]domain.Variant, error) {
	q := `SELECT ` + variantColumns + ` FROM variants WHERE product_id = $1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, q, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Variant
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(
			&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.Options, &v.PriceCents, &v.SalePriceCents, &v.Stock, &v.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}
