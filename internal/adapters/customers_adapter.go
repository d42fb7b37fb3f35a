package adapters

import (
	"context"

	customerssvc "maremio_backend/internal/customers/service"
	"maremio_backend/internal/drafts/ports"
	orderssvc "maremio_backend/internal/orders/service"

	"github.com/google/uuid"
)

// CustomerDirectory is the narrow customers view shared by drafts and orders.
type CustomerDirectory interface {
	FindIDByPhone(ctx context.Context, phone string) (*uuid.UUID, error)
	FindOrCreate(ctx context.Context, name, phone, email string) (*uuid.UUID, error)
}

// CustomersAdapter links drafts and orders to the customer directory.
// It satisfies drafts ports.CustomerLookup and orders CustomerResolver.
type CustomersAdapter struct {
	directory CustomerDirectory
}

// NewCustomersAdapter creates a new customers adapter.
func NewCustomersAdapter(directory CustomerDirectory) *CustomersAdapter {
	return &CustomersAdapter{directory: directory}
}

// FindIDByPhone returns the customer owning phone, or nil.
func (a *CustomersAdapter) FindIDByPhone(ctx context.Context, phone string) (*uuid.UUID, error) {
	return a.directory.FindIDByPhone(ctx, phone)
}

// FindOrCreate links an order to an existing or new customer.
func (a *CustomersAdapter) FindOrCreate(ctx context.Context, name, phone, email string) (*uuid.UUID, error) {
	return a.directory.FindOrCreate(ctx, name, phone, email)
}

var (
	_ ports.CustomerLookup       = (*CustomersAdapter)(nil)
	_ orderssvc.CustomerResolver = (*CustomersAdapter)(nil)
	_ CustomerDirectory          = (*customerssvc.Service)(nil)
)
