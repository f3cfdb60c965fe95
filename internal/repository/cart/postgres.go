package cart

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"toystore/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const lineColumns = `id::text, cart_id, kind, COALESCE(variant_id::text, ''), face_value_cents, quantity, unit_price_cents, display_name, added_at`

// Get returns the cart with lines in insertion order. A cart id that has no
// row yet reads back as an empty cart.
func (r *postgresRepo) Get(ctx context.Context, id string) (*domain.Cart, error) {
	cart := &domain.Cart{ID: id}

	const cartQuery = `SELECT created_at FROM carts WHERE id = $1`
	if err := r.pool.QueryRow(ctx, cartQuery, id).Scan(&cart.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cart, nil
		}
		return nil, err
	}

	q := `SELECT ` + lineColumns + ` FROM cart_lines WHERE cart_id = $1 ORDER BY added_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(
			&line.ID, &line.CartID, &line.Kind, &line.VariantID,
			&line.FaceValueCents, &line.Quantity, &line.UnitPriceCents,
			&line.DisplayName, &line.AddedAt,
		); err != nil {
			return nil, err
		}
		cart.Lines = append(cart.Lines, line)
	}
	return cart, rows.Err()
}

func (r *postgresRepo) AddProductLine(ctx context.Context, cartID string, variant domain.Variant, quantity int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := ensureCart(ctx, tx, cartID); err != nil {
		return err
	}

	// Aggregation keeps the line's original position: only quantity moves.
	const q = `
INSERT INTO cart_lines (cart_id, kind, variant_id, quantity, unit_price_cents, display_name)
VALUES ($1, 'product', $2, $3, $4, $5)
ON CONFLICT (cart_id, variant_id) WHERE kind = 'product' DO UPDATE SET
    quantity = cart_lines.quantity + EXCLUDED.quantity
`
	if _, err := tx.Exec(ctx, q, cartID, variant.ID, quantity, variant.CurrentPriceCents(), variant.Name); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) AddGiftCardLine(ctx context.Context, cartID string, faceValueCents int64, quantity int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := ensureCart(ctx, tx, cartID); err != nil {
		return err
	}

	const q = `
INSERT INTO cart_lines (cart_id, kind, face_value_cents, quantity, unit_price_cents, display_name)
VALUES ($1, 'gift_card', $2, $3, $2, $4)
ON CONFLICT (cart_id, face_value_cents) WHERE kind = 'gift_card' DO UPDATE SET
    quantity = cart_lines.quantity + EXCLUDED.quantity
`
	name := domain.GiftCardDisplayName(faceValueCents)
	if _, err := tx.Exec(ctx, q, cartID, faceValueCents, quantity, name); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) UpdateQuantity(ctx context.Context, cartID, lineID string, quantity int) error {
	if quantity <= 0 {
		return r.RemoveLine(ctx, cartID, lineID)
	}
	const q = `
UPDATE cart_lines
SET quantity = $1
WHERE id = $2 AND cart_id = $3
`
	cmd, err := r.pool.Exec(ctx, q, quantity, lineID, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) RemoveLine(ctx context.Context, cartID, lineID string) error {
	const q = `DELETE FROM cart_lines WHERE id = $1 AND cart_id = $2`
	cmd, err := r.pool.Exec(ctx, q, lineID, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Clear(ctx context.Context, cartID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID)
	return err
}

func ensureCart(ctx context.Context, tx pgx.Tx, cartID string) error {
	_, err := tx.Exec(ctx, `INSERT INTO carts (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, cartID)
	return err
}
