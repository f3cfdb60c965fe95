package order

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

func (r *postgresRepo) Commit(ctx context.Context, in CommitInput, authorize AuthorizeFunc) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := recheckStock(ctx, tx, in.Draft.Items); err != nil {
		return nil, err
	}

	creditCard, giftCards, err := authorize(ctx)
	if err != nil {
		return nil, err
	}

	order, err := insertOrder(ctx, tx, in)
	if err != nil {
		return nil, err
	}

	if err := insertAddresses(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := insertItems(ctx, tx, order, in.Draft.Items); err != nil {
		return nil, err
	}
	if err := insertTaxes(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := insertPayments(ctx, tx, order, creditCard, giftCards); err != nil {
		return nil, err
	}
	if err := decrementStock(ctx, tx, in.Draft.Items); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, in.CartID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: committed id=%s total_cents=%d items=%d", order.ID, order.TotalCents, len(order.Items))
	return order, nil
}

func (r *postgresRepo) Cancel(ctx context.Context, orderID string) (*domain.Order, bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	var status domain.OrderStatus
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, domain.ErrNotFound
		}
		return nil, false, err
	}

	switch status {
	case domain.OrderCancelled:
		// Second cancel is a no-op; no further stock increment.
		order, err := r.GetByID(ctx, orderID)
		return order, false, err
	case domain.OrderSubmitted, domain.OrderProcessed:
	default:
		return nil, false, domain.ErrNotCancellable
	}

	if _, err := tx.Exec(ctx, `
UPDATE orders SET status = 'cancelled', payment_status = 'cancelled', updated_at = now() WHERE id = $1
`, orderID); err != nil {
		return nil, false, err
	}
	if _, err := tx.Exec(ctx, `
UPDATE credit_card_payments SET status = 'cancelled' WHERE order_id = $1
`, orderID); err != nil {
		return nil, false, err
	}
	if _, err := tx.Exec(ctx, `
UPDATE gift_card_payments SET status = 'cancelled' WHERE order_id = $1
`, orderID); err != nil {
		return nil, false, err
	}
	if _, err := tx.Exec(ctx, `
UPDATE variants v
SET stock = v.stock + oi.quantity
FROM order_items oi
WHERE oi.order_id = $1 AND oi.kind = 'product' AND oi.variant_id = v.id
`, orderID); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	r.logger.Printf("order repo: cancelled id=%s", orderID)

	order, err := r.GetByID(ctx, orderID)
	return order, true, err
}

func (r *postgresRepo) SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders SET status = $1, updated_at = now() WHERE id = $2
`, status, orderID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const orderColumns = `id::text, customer_id::text, first_name, last_name, email, phone, contact_method, status, payment_status, merchandise_total_cents, shipping_charge_cents, total_cents, created_at, updated_at`

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := scanOrder(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadOwned(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		if err := r.loadOwned(ctx, &result[i]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// recheckStock locks every referenced variant row and verifies live stock.
// FOR UPDATE serializes concurrent commits touching the same variants.
func recheckStock(ctx context.Context, tx pgx.Tx, items []domain.CartLine) error {
	ids := make([]string, 0, len(items))
	for _, l := range items {
		if l.Kind == domain.LineProduct {
			ids = append(ids, l.VariantID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	rows, err := tx.Query(ctx, `SELECT id::text, stock FROM variants WHERE id = ANY($1) FOR UPDATE`, ids)
	if err != nil {
		return err
	}
	stock := make(map[string]int, len(ids))
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			rows.Close()
			return err
		}
		stock[id] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	var failed []domain.OutOfStockError
	for _, l := range items {
		if l.Kind != domain.LineProduct {
			continue
		}
		inStock, ok := stock[l.VariantID]
		if !ok {
			return domain.ErrNotFound
		}
		if l.Quantity > inStock {
			failed = append(failed, domain.OutOfStockError{
				VariantID: l.VariantID,
				InStock:   inStock,
				InCart:    l.Quantity,
			})
		}
	}
	if len(failed) > 0 {
		return &domain.InventoryChangedError{Lines: failed}
	}
	return nil
}

func insertOrder(ctx context.Context, tx pgx.Tx, in CommitInput) (*domain.Order, error) {
	draft := &in.Draft
	order := &domain.Order{
		CustomerID:            in.CustomerID,
		Contact:               draft.Contact,
		Status:                domain.OrderSubmitted,
		PaymentStatus:         domain.PaymentAuthorized,
		Taxes:                 in.Taxes,
		MerchandiseTotalCents: draft.MerchandiseTotalCents(),
		ShippingChargeCents:   draft.ShippingChargeCents,
		TotalCents:            draft.TotalCents(in.Taxes),
	}

	const q = `
INSERT INTO orders (customer_id, first_name, last_name, email, phone, contact_method, status, payment_status, merchandise_total_cents, shipping_charge_cents, total_cents)
VALUES ($1, $2, $3, $4, $5, $6, 'submitted', 'authorized', $7, $8, $9)
RETURNING id::text, created_at, updated_at
`
	err := tx.QueryRow(ctx, q,
		in.CustomerID, draft.Contact.FirstName, draft.Contact.LastName,
		draft.Contact.Email, draft.Contact.Phone, draft.Contact.Method,
		order.MerchandiseTotalCents, order.ShippingChargeCents, order.TotalCents,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	order.ShippingAddress = domain.OrderAddress{OrderID: order.ID, Address: draft.ShippingAddress}
	order.BillingAddress = domain.OrderAddress{OrderID: order.ID, Address: draft.BillingAddress}
	return order, nil
}

func insertAddresses(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	const q = `
INSERT INTO order_addresses (order_id, kind, addressee, phone, line1, line2, city, region, country, post_code)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id::text
`
	for _, entry := range []struct {
		kind string
		addr *domain.OrderAddress
	}{
		{"shipping", &order.ShippingAddress},
		{"billing", &order.BillingAddress},
	} {
		a := entry.addr
		err := tx.QueryRow(ctx, q,
			order.ID, entry.kind, a.Addressee, a.Phone,
			a.Line1, a.Line2, a.City, a.Region, a.Country, a.PostCode,
		).Scan(&a.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func insertItems(ctx context.Context, tx pgx.Tx, order *domain.Order, lines []domain.CartLine) error {
	const q = `
INSERT INTO order_items (order_id, kind, variant_id, sku, display_name, quantity, unit_price_cents, position)
VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8)
RETURNING id::text
`
	for i, l := range lines {
		item := domain.OrderItem{
			OrderID:        order.ID,
			Kind:           l.Kind,
			VariantID:      l.VariantID,
			DisplayName:    l.DisplayName,
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
		}
		err := tx.QueryRow(ctx, q,
			order.ID, l.Kind, l.VariantID, item.SKU, l.DisplayName, l.Quantity, l.UnitPriceCents, i,
		).Scan(&item.ID)
		if err != nil {
			return err
		}
		order.Items = append(order.Items, item)
	}
	return nil
}

func insertTaxes(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	const q = `
INSERT INTO order_taxes (order_id, name, rate_percent, amount_cents, position)
VALUES ($1, $2, $3::numeric, $4, $5)
`
	for i, t := range order.Taxes {
		if _, err := tx.Exec(ctx, q, order.ID, t.Name, t.RatePercent, t.AmountCents, i); err != nil {
			return err
		}
	}
	return nil
}

func insertPayments(ctx context.Context, tx pgx.Tx, order *domain.Order, creditCard *domain.CreditCardPayment, giftCards []domain.GiftCardPayment) error {
	if creditCard != nil {
		cc := *creditCard
		cc.OrderID = order.ID
		cc.Status = domain.PaymentAuthorized
		const q = `
INSERT INTO credit_card_payments (order_id, transaction_id, amount_cents, card_type, last_four, status)
VALUES ($1, $2, $3, $4, $5, 'authorized')
RETURNING id::text
`
		if err := tx.QueryRow(ctx, q, order.ID, cc.TransactionID, cc.AmountCents, cc.CardType, cc.LastFour).Scan(&cc.ID); err != nil {
			return err
		}
		order.CreditCard = &cc
	}

	const q = `
INSERT INTO gift_card_payments (order_id, card_number, amount_cents, status, position)
VALUES ($1, $2, $3, 'authorized', $4)
RETURNING id::text
`
	for i, gc := range giftCards {
		gc.OrderID = order.ID
		gc.Status = domain.PaymentAuthorized
		if err := tx.QueryRow(ctx, q, order.ID, gc.CardNumber, gc.AmountCents, i).Scan(&gc.ID); err != nil {
			return err
		}
		order.GiftCards = append(order.GiftCards, gc)
	}
	return nil
}

func decrementStock(ctx context.Context, tx pgx.Tx, lines []domain.CartLine) error {
	const q = `
UPDATE variants SET stock = GREATEST(stock - $1, 0) WHERE id = $2
`
	for _, l := range lines {
		if l.Kind != domain.LineProduct {
			continue
		}
		if _, err := tx.Exec(ctx, q, l.Quantity, l.VariantID); err != nil {
			return err
		}
	}
	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var customerID *string
	err := row.Scan(
		&o.ID, &customerID, &o.Contact.FirstName, &o.Contact.LastName,
		&o.Contact.Email, &o.Contact.Phone, &o.Contact.Method,
		&o.Status, &o.PaymentStatus,
		&o.MerchandiseTotalCents, &o.ShippingChargeCents, &o.TotalCents,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.CustomerID = customerID
	return &o, nil
}

func (r *postgresRepo) loadOwned(ctx context.Context, order *domain.Order) error {
	const addrQ = `
SELECT id::text, kind, addressee, phone, line1, line2, city, region, country, post_code
FROM order_addresses
WHERE order_id = $1
`
	rows, err := r.pool.Query(ctx, addrQ, order.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var a domain.OrderAddress
		var kind string
		if err := rows.Scan(
			&a.ID, &kind, &a.Addressee, &a.Phone,
			&a.Line1, &a.Line2, &a.City, &a.Region, &a.Country, &a.PostCode,
		); err != nil {
			rows.Close()
			return err
		}
		a.OrderID = order.ID
		if kind == "billing" {
			order.BillingAddress = a
		} else {
			order.ShippingAddress = a
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	const itemQ = `
SELECT id::text, kind, COALESCE(variant_id::text, ''), sku, display_name, quantity, unit_price_cents
FROM order_items
WHERE order_id = $1
ORDER BY position ASC
`
	rows, err = r.pool.Query(ctx, itemQ, order.ID)
	if err != nil {
		return err
	}
	order.Items = nil
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID, &item.Kind, &item.VariantID, &item.SKU,
			&item.DisplayName, &item.Quantity, &item.UnitPriceCents,
		); err != nil {
			rows.Close()
			return err
		}
		item.OrderID = order.ID
		order.Items = append(order.Items, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	const taxQ = `
SELECT name, rate_percent::text, amount_cents
FROM order_taxes
WHERE order_id = $1
ORDER BY position ASC
`
	rows, err = r.pool.Query(ctx, taxQ, order.ID)
	if err != nil {
		return err
	}
	order.Taxes = nil
	for rows.Next() {
		var t domain.TaxLine
		if err := rows.Scan(&t.Name, &t.RatePercent, &t.AmountCents); err != nil {
			rows.Close()
			return err
		}
		order.Taxes = append(order.Taxes, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	const ccQ = `
SELECT id::text, transaction_id, amount_cents, card_type, last_four, status
FROM credit_card_payments
WHERE order_id = $1
`
	var cc domain.CreditCardPayment
	err = r.pool.QueryRow(ctx, ccQ, order.ID).Scan(
		&cc.ID, &cc.TransactionID, &cc.AmountCents, &cc.CardType, &cc.LastFour, &cc.Status,
	)
	switch {
	case err == nil:
		cc.OrderID = order.ID
		order.CreditCard = &cc
	case errors.Is(err, pgx.ErrNoRows):
		order.CreditCard = nil
	default:
		return err
	}

	const gcQ = `
SELECT id::text, card_number, amount_cents, status
FROM gift_card_payments
WHERE order_id = $1
ORDER BY position ASC
`
	rows, err = r.pool.Query(ctx, gcQ, order.ID)
	if err != nil {
		return err
	}
	order.GiftCards = nil
	for rows.Next() {
		var gc domain.GiftCardPayment
		if err := rows.Scan(&gc.ID, &gc.CardNumber, &gc.AmountCents, &gc.Status); err != nil {
			rows.Close()
			return err
		}
		gc.OrderID = order.ID
		order.GiftCards = append(order.GiftCards, gc)
	}
	rows.Close()
	return rows.Err()
}
