package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"maremio_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	productNotFoundMessage  = "product not found"
	categoryNotFoundMessage = "category not found"
)

// Repo implements the catalog repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// price is NUMERIC(10,2); it is read back as float8 so it scans into float64.
const productColumns = `id, name, description, price::float8, unit, category, available, sort_order, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var product Product
	var createdAt, updatedAt time.Time
	if err := row.Scan(
		&product.ID, &product.Name, &product.Description, &product.Price, &product.Unit,
		&product.Category, &product.Available, &product.SortOrder, &createdAt, &updatedAt,
	); err != nil {
		return Product{}, err
	}
	product.CreatedAt = createdAt.Format(time.RFC3339)
	product.UpdatedAt = updatedAt.Format(time.RFC3339)
	return product, nil
}

func scanCategory(row rowScanner) (Category, error) {
	var category Category
	var createdAt, updatedAt time.Time
	if err := row.Scan(&category.ID, &category.Name, &category.Label, &category.SortOrder, &createdAt, &updatedAt); err != nil {
		return Category{}, err
	}
	category.CreatedAt = createdAt.Format(time.RFC3339)
	category.UpdatedAt = updatedAt.Format(time.RFC3339)
	return category, nil
}

// CreateProduct creates a new product.
func (r *Repo) CreateProduct(ctx context.Context, params CreateProductParams) (Product, error) {
	query := `
		INSERT INTO products (name, description, price, unit, category, available, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + productColumns

	product, err := scanProduct(r.pool.QueryRow(ctx, query,
		params.Name, params.Description, params.Price, params.Unit, params.Category, params.Available, params.SortOrder,
	))
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

// UpdateProduct applies the non-nil fields of params.
func (r *Repo) UpdateProduct(ctx context.Context, params UpdateProductParams) (Product, error) {
	query := `
		UPDATE products
		SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			price = COALESCE($4, price),
			unit = COALESCE($5, unit),
			category = COALESCE($6, category),
			available = COALESCE($7, available),
			sort_order = COALESCE($8, sort_order),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + productColumns

	product, err := scanProduct(r.pool.QueryRow(ctx, query,
		params.ID, params.Name, params.Description, params.Price, params.Unit, params.Category, params.Available, params.SortOrder,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, apperr.NotFound(productNotFoundMessage)
		}
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

// DeleteProduct deletes a product. Order lines keep their copied name.
func (r *Repo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(productNotFoundMessage)
	}
	return nil
}

// GetProductByID retrieves a product by ID.
func (r *Repo) GetProductByID(ctx context.Context, id uuid.UUID) (Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	product, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, apperr.NotFound(productNotFoundMessage)
		}
		return Product{}, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// GetProductByName retrieves a product by case-insensitive name.
func (r *Repo) GetProductByName(ctx context.Context, name string) (Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE lower(name) = lower($1) LIMIT 1`
	product, err := scanProduct(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, apperr.NotFound(productNotFoundMessage)
		}
		return Product{}, fmt.Errorf("get product by name: %w", err)
	}
	return product, nil
}

// ListProducts lists products with filters and pagination, in menu order.
func (r *Repo) ListProducts(ctx context.Context, params ListProductsParams) ([]Product, int, error) {
	whereClauses := []string{"TRUE"}
	args := []interface{}{}
	argIdx := 1

	if params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}

	if params.Category != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, params.Category)
		argIdx++
	}

	if params.AvailableOnly {
		whereClauses = append(whereClauses, "available = true")
	}

	whereClause := strings.Join(whereClauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM products WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE %s
		ORDER BY sort_order NULLS LAST, name
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	items := make([]Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, product)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate products: %w", rows.Err())
	}

	return items, total, nil
}

// ListAvailableProducts returns every available product ordered by sort order.
func (r *Repo) ListAvailableProducts(ctx context.Context) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE available = true ORDER BY sort_order NULLS LAST, name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list available products: %w", err)
	}
	defer rows.Close()

	items := make([]Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, product)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate products: %w", rows.Err())
	}
	return items, nil
}

// NextSortOrder returns max(sort_order)+1 within a category, or 1 when empty.
func (r *Repo) NextSortOrder(ctx context.Context, category string) (int, error) {
	var next int
	query := `SELECT COALESCE(MAX(sort_order), 0) + 1 FROM products WHERE category = $1`
	if err := r.pool.QueryRow(ctx, query, category).Scan(&next); err != nil {
		return 0, fmt.Errorf("next sort order: %w", err)
	}
	return next, nil
}

// ListCategories returns all categories in display order.
func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, label, sort_order, created_at, updated_at
		FROM categories
		ORDER BY sort_order NULLS LAST, label`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	items := make([]Category, 0)
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, category)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate categories: %w", rows.Err())
	}
	return items, nil
}

// GetCategoryByID retrieves a category by ID.
func (r *Repo) GetCategoryByID(ctx context.Context, id uuid.UUID) (Category, error) {
	category, err := scanCategory(r.pool.QueryRow(ctx, `
		SELECT id, name, label, sort_order, created_at, updated_at
		FROM categories WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, apperr.NotFound(categoryNotFoundMessage)
		}
		return Category{}, fmt.Errorf("get category by id: %w", err)
	}
	return category, nil
}

// UpsertCategory inserts a category or refreshes the label of an existing one.
func (r *Repo) UpsertCategory(ctx context.Context, params UpsertCategoryParams) (Category, error) {
	query := `
		INSERT INTO categories (name, label, sort_order)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		SET label = EXCLUDED.label,
			sort_order = COALESCE(EXCLUDED.sort_order, categories.sort_order),
			updated_at = now()
		RETURNING id, name, label, sort_order, created_at, updated_at`

	category, err := scanCategory(r.pool.QueryRow(ctx, query, params.Name, params.Label, params.SortOrder))
	if err != nil {
		return Category{}, fmt.Errorf("upsert category: %w", err)
	}
	return category, nil
}

// UpdateCategory updates label and sort order. The name is the join key
// used by products and never changes.
func (r *Repo) UpdateCategory(ctx context.Context, params UpdateCategoryParams) (Category, error) {
	query := `
		UPDATE categories
		SET
			label = COALESCE($2, label),
			sort_order = COALESCE($3, sort_order),
			updated_at = now()
		WHERE id = $1
		RETURNING id, name, label, sort_order, created_at, updated_at`

	category, err := scanCategory(r.pool.QueryRow(ctx, query, params.ID, params.Label, params.SortOrder))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, apperr.NotFound(categoryNotFoundMessage)
		}
		return Category{}, fmt.Errorf("update category: %w", err)
	}
	return category, nil
}

// DeleteCategory deletes a category.
func (r *Repo) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(categoryNotFoundMessage)
	}
	return nil
}

// CountProductsInCategory counts products referencing a category name.
func (r *Repo) CountProductsInCategory(ctx context.Context, category string) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE category = $1`, category).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products in category: %w", err)
	}
	return count, nil
}
