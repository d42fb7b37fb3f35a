package repository

import (
	"context"

	"github.com/google/uuid"
)

// Customer is a directory entry. Phone is stored normalized (national digits).
type Customer struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	Email     *string
	CreatedAt string
}

type FindOrCreateParams struct {
	Name  string
	Phone string
	Email *string
}

type UpdateCustomerParams struct {
	ID    uuid.UUID
	Name  *string
	Phone *string
	Email *string
}

type ListCustomersParams struct {
	Search string
	Offset int
	Limit  int
}

// Repository defines the customers data access contract.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Customer, error)
	GetByPhone(ctx context.Context, phone string) (Customer, error)
	FindOrCreate(ctx context.Context, params FindOrCreateParams) (Customer, bool, error)
	Update(ctx context.Context, params UpdateCustomerParams) (Customer, error)
	List(ctx context.Context, params ListCustomersParams) ([]Customer, int, error)
}
