package repository

import (
	"context"

	"github.com/google/uuid"
)

// Product is a menu entry as stored in PostgreSQL.
type Product struct {
	ID          uuid.UUID
	Name        string
	Description *string
	Price       float64
	Unit        string
	Category    string
	Available   bool
	SortOrder   *int
	CreatedAt   string
	UpdatedAt   string
}

// Category groups products on the menu (e.g. "crudi", "primi").
type Category struct {
	ID        uuid.UUID
	Name      string
	Label     string
	SortOrder *int
	CreatedAt string
	UpdatedAt string
}

type CreateProductParams struct {
	Name        string
	Description *string
	Price       float64
	Unit        string
	Category    string
	Available   bool
	SortOrder   int
}

type UpdateProductParams struct {
	ID          uuid.UUID
	Name        *string
	Description *string
	Price       *float64
	Unit        *string
	Category    *string
	Available   *bool
	SortOrder   *int
}

type ListProductsParams struct {
	Search        string
	Category      string
	AvailableOnly bool
	Offset        int
	Limit         int
}

type UpsertCategoryParams struct {
	Name      string
	Label     string
	SortOrder *int
}

type UpdateCategoryParams struct {
	ID        uuid.UUID
	Label     *string
	SortOrder *int
}

// Repository defines the catalog data access contract.
type Repository interface {
	CreateProduct(ctx context.Context, params CreateProductParams) (Product, error)
	UpdateProduct(ctx context.Context, params UpdateProductParams) (Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProductByID(ctx context.Context, id uuid.UUID) (Product, error)
	GetProductByName(ctx context.Context, name string) (Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]Product, int, error)
	ListAvailableProducts(ctx context.Context) ([]Product, error)
	NextSortOrder(ctx context.Context, category string) (int, error)

	ListCategories(ctx context.Context) ([]Category, error)
	GetCategoryByID(ctx context.Context, id uuid.UUID) (Category, error)
	UpsertCategory(ctx context.Context, params UpsertCategoryParams) (Category, error)
	UpdateCategory(ctx context.Context, params UpdateCategoryParams) (Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	CountProductsInCategory(ctx context.Context, category string) (int, error)
}
