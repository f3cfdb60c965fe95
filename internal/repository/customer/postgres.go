package customer

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const customerColumns = `id::text, lazy, COALESCE(email, ''), password_hash, first_name, last_name, phone, contact_method, subscribed_to_mailing_list, created_at`

func (r *postgresRepo) Create(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	const q = `
INSERT INTO customers (lazy, email, password_hash, first_name, last_name, phone, contact_method, subscribed_to_mailing_list)
VALUES (false, $1, $2, $3, $4, $5, $6, $7)
RETURNING id::text, created_at
`
	res := c
	res.Lazy = false
	method := c.ContactMethod
	if method == "" {
		method = domain.ContactUnknown
	}
	err := r.pool.QueryRow(ctx, q,
		strings.ToLower(strings.TrimSpace(c.Email)), c.PasswordHash,
		c.FirstName, c.LastName, c.Phone, method, c.SubscribedToMailingList,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("customer repo: create error=%v", err)
		return nil, err
	}
	return &res, nil
}

func (r *postgresRepo) CreateLazy(ctx context.Context) (*domain.Customer, error) {
	const q = `
INSERT INTO customers (lazy) VALUES (true)
RETURNING ` + customerColumns + `
`
	return r.scanOne(r.pool.QueryRow(ctx, q))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	q := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	q := `SELECT ` + customerColumns + ` FROM customers WHERE lower(email) = lower($1)`
	return r.scanOne(r.pool.QueryRow(ctx, q, strings.TrimSpace(email)))
}

func (r *postgresRepo) UpdateProfile(ctx context.Context, c domain.Customer) error {
	const q = `
UPDATE customers
SET first_name = $1,
    last_name = $2,
    phone = $3,
    contact_method = $4,
    subscribed_to_mailing_list = $5
WHERE id = $6
`
	cmd, err := r.pool.Exec(ctx, q, c.FirstName, c.LastName, c.Phone, c.ContactMethod, c.SubscribedToMailingList, c.ID)
	if err != nil {
		r.logger.Printf("customer repo: update profile id=%s error=%v", c.ID, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Promote converts a lazy customer in place: same primary key, so orders that
// reference the row stay owned by the promoted account.
func (r *postgresRepo) Promote(ctx context.Context, id, email, passwordHash string) (*domain.Customer, error) {
	const q = `
UPDATE customers
SET lazy = false,
    email = $1,
    password_hash = $2
WHERE id = $3 AND lazy
RETURNING ` + customerColumns + `
`
	c, err := r.scanOne(r.pool.QueryRow(ctx, q, strings.ToLower(strings.TrimSpace(email)), passwordHash, id))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return c, nil
}

const addressColumns = `id::text, customer_id::text, nickname, billing, addressee, phone, line1, line2, city, region, country, post_code`

func (r *postgresRepo) ListShippingAddresses(ctx context.Context, customerID string) ([]domain.CustomerAddress, error) {
	q := `SELECT ` + addressColumns + ` FROM customer_addresses WHERE customer_id = $1 AND NOT billing ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CustomerAddress
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *postgresRepo) GetAddress(ctx context.Context, id string) (*domain.CustomerAddress, error) {
	q := `SELECT ` + addressColumns + ` FROM customer_addresses WHERE id = $1`
	a, err := scanAddress(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *postgresRepo) GetShippingAddressByNickname(ctx context.Context, customerID, nickname string) (*domain.CustomerAddress, error) {
	q := `SELECT ` + addressColumns + ` FROM customer_addresses WHERE customer_id = $1 AND nickname = $2 AND NOT billing`
	a, err := scanAddress(r.pool.QueryRow(ctx, q, customerID, nickname))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *postgresRepo) GetBillingAddress(ctx context.Context, customerID string) (*domain.CustomerAddress, error) {
	q := `SELECT ` + addressColumns + ` FROM customer_addresses WHERE customer_id = $1 AND billing`
	a, err := scanAddress(r.pool.QueryRow(ctx, q, customerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// SaveShippingAddress upserts by (customer, nickname); nicknames are
// case-sensitive and unique per customer.
func (r *postgresRepo) SaveShippingAddress(ctx context.Context, a domain.CustomerAddress) (*domain.CustomerAddress, error) {
	const q = `
INSERT INTO customer_addresses (customer_id, nickname, billing, addressee, phone, line1, line2, city, region, country, post_code)
VALUES ($1, $2, false, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (customer_id, nickname) WHERE NOT billing DO UPDATE SET
    addressee = EXCLUDED.addressee,
    phone = EXCLUDED.phone,
    line1 = EXCLUDED.line1,
    line2 = EXCLUDED.line2,
    city = EXCLUDED.city,
    region = EXCLUDED.region,
    country = EXCLUDED.country,
    post_code = EXCLUDED.post_code
RETURNING id::text
`
	res := a
	res.Billing = false
	err := r.pool.QueryRow(ctx, q,
		a.CustomerID, a.Nickname, a.Addressee, a.Phone,
		a.Line1, a.Line2, a.City, a.Region, a.Country, a.PostCode,
	).Scan(&res.ID)
	if err != nil {
		r.logger.Printf("customer repo: save shipping address customer_id=%s error=%v", a.CustomerID, err)
		return nil, err
	}
	return &res, nil
}

func (r *postgresRepo) SaveBillingAddress(ctx context.Context, a domain.CustomerAddress) (*domain.CustomerAddress, error) {
	const q = `
INSERT INTO customer_addresses (customer_id, nickname, billing, addressee, phone, line1, line2, city, region, country, post_code)
VALUES ($1, '', true, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (customer_id) WHERE billing DO UPDATE SET
    addressee = EXCLUDED.addressee,
    phone = EXCLUDED.phone,
    line1 = EXCLUDED.line1,
    line2 = EXCLUDED.line2,
    city = EXCLUDED.city,
    region = EXCLUDED.region,
    country = EXCLUDED.country,
    post_code = EXCLUDED.post_code
RETURNING id::text
`
	res := a
	res.Billing = true
	res.Nickname = ""
	err := r.pool.QueryRow(ctx, q,
		a.CustomerID, a.Addressee, a.Phone,
		a.Line1, a.Line2, a.City, a.Region, a.Country, a.PostCode,
	).Scan(&res.ID)
	if err != nil {
		r.logger.Printf("customer repo: save billing address customer_id=%s error=%v", a.CustomerID, err)
		return nil, err
	}
	return &res, nil
}

func (r *postgresRepo) DeleteAddress(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM customer_addresses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) scanOne(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(
		&c.ID, &c.Lazy, &c.Email, &c.PasswordHash,
		&c.FirstName, &c.LastName, &c.Phone, &c.ContactMethod,
		&c.SubscribedToMailingList, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func scanAddress(row pgx.Row) (*domain.CustomerAddress, error) {
	var a domain.CustomerAddress
	err := row.Scan(
		&a.ID, &a.CustomerID, &a.Nickname, &a.Billing,
		&a.Addressee, &a.Phone, &a.Line1, &a.Line2,
		&a.City, &a.Region, &a.Country, &a.PostCode,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
