package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"maremio_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const customerNotFoundMessage = "customer not found"

// Repo implements the customers repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new customers repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

const customerColumns = `id, name, phone, email, created_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var customer Customer
	var createdAt time.Time
	if err := row.Scan(&customer.ID, &customer.Name, &customer.Phone, &customer.Email, &createdAt); err != nil {
		return Customer{}, err
	}
	customer.CreatedAt = createdAt.Format(time.RFC3339)
	return customer, nil
}

// GetByID retrieves a customer by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Customer, error) {
	customer, err := scanCustomer(r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, apperr.NotFound(customerNotFoundMessage)
		}
		return Customer{}, fmt.Errorf("get customer by id: %w", err)
	}
	return customer, nil
}

// GetByPhone retrieves a customer by normalized phone.
func (r *Repo) GetByPhone(ctx context.Context, phone string) (Customer, error) {
	customer, err := scanCustomer(r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE phone = $1`, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, apperr.NotFound(customerNotFoundMessage)
		}
		return Customer{}, fmt.Errorf("get customer by phone: %w", err)
	}
	return customer, nil
}

// FindOrCreate returns the customer owning phone, inserting it when new.
// An existing customer only gains an email if it had none. The bool reports
// whether a row was inserted.
func (r *Repo) FindOrCreate(ctx context.Context, params FindOrCreateParams) (Customer, bool, error) {
	query := `
		INSERT INTO customers (name, phone, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone) DO UPDATE
		SET email = COALESCE(customers.email, EXCLUDED.email)
		RETURNING ` + customerColumns + `, (xmax = 0) AS inserted`

	var customer Customer
	var createdAt time.Time
	var inserted bool
	if err := r.pool.QueryRow(ctx, query, params.Name, params.Phone, params.Email).Scan(
		&customer.ID, &customer.Name, &customer.Phone, &customer.Email, &createdAt, &inserted,
	); err != nil {
		return Customer{}, false, fmt.Errorf("find or create customer: %w", err)
	}
	customer.CreatedAt = createdAt.Format(time.RFC3339)
	return customer, inserted, nil
}

// Update applies the non-nil fields of params.
func (r *Repo) Update(ctx context.Context, params UpdateCustomerParams) (Customer, error) {
	query := `
		UPDATE customers
		SET
			name = COALESCE($2, name),
			phone = COALESCE($3, phone),
			email = COALESCE($4, email)
		WHERE id = $1
		RETURNING ` + customerColumns

	customer, err := scanCustomer(r.pool.QueryRow(ctx, query, params.ID, params.Name, params.Phone, params.Email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, apperr.NotFound(customerNotFoundMessage)
		}
		return Customer{}, fmt.Errorf("update customer: %w", err)
	}
	return customer, nil
}

// List returns customers matching a name or phone fragment.
func (r *Repo) List(ctx context.Context, params ListCustomersParams) ([]Customer, int, error) {
	search := "%" + params.Search + "%"

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM customers WHERE name ILIKE $1 OR phone ILIKE $1`, search,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE name ILIKE $1 OR phone ILIKE $1
		ORDER BY name
		LIMIT $2 OFFSET $3`, search, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	items := make([]Customer, 0)
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		items = append(items, customer)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate customers: %w", rows.Err())
	}
	return items, total, nil
}
