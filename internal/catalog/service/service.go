package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"maremio_backend/internal/catalog/repository"
	"maremio_backend/internal/catalog/transport"
	"maremio_backend/platform/apperr"
	"maremio_backend/platform/logger"
)

const (
	defaultUnit     = "porzione"
	defaultCategory = "altro"
)

// SnapshotCache holds the available-products list between requests.
type SnapshotCache interface {
	Load(ctx context.Context) ([]transport.ProductResponse, bool, error)
	Store(ctx context.Context, products []transport.ProductResponse) error
	Invalidate(ctx context.Context) error
}

// Service provides business logic for the menu catalog.
type Service struct {
	repo  repository.Repository
	cache SnapshotCache
	log   *logger.Logger
}

// New creates a new catalog service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// SetCache enables the snapshot cache for AvailableProducts.
func (s *Service) SetCache(cache SnapshotCache) {
	s.cache = cache
}

// GetProductByID retrieves a product by ID.
func (s *Service) GetProductByID(ctx context.Context, id uuid.UUID) (transport.ProductResponse, error) {
	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return transport.ProductResponse{}, err
	}
	return toProductResponse(product), nil
}

// ListProducts retrieves products with search and pagination.
func (s *Service) ListProducts(ctx context.Context, req transport.ListProductsRequest) (transport.ProductListResponse, error) {
	page := req.Page
	pageSize := req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}

	items, total, err := s.repo.ListProducts(ctx, repository.ListProductsParams{
		Search:        strings.TrimSpace(req.Search),
		Category:      strings.TrimSpace(req.Category),
		AvailableOnly: req.AvailableOnly,
		Offset:        (page - 1) * pageSize,
		Limit:         pageSize,
	})
	if err != nil {
		return transport.ProductListResponse{}, err
	}

	return toProductListResponse(items, total, page, pageSize), nil
}

// AvailableProducts returns the products a draft may be matched against,
// in menu order. The cache is best effort; failures fall back to the database.
func (s *Service) AvailableProducts(ctx context.Context) ([]transport.ProductResponse, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Load(ctx)
		if err != nil {
			s.log.Warn("catalog cache read failed", "error", err)
		} else if ok {
			return cached, nil
		}
	}

	items, err := s.repo.ListAvailableProducts(ctx)
	if err != nil {
		return nil, err
	}
	products := make([]transport.ProductResponse, 0, len(items))
	for _, item := range items {
		products = append(products, toProductResponse(item))
	}

	if s.cache != nil {
		if err := s.cache.Store(ctx, products); err != nil {
			s.log.Warn("catalog cache write failed", "error", err)
		}
	}
	return products, nil
}

// Menu groups available products by category for the public page.
// Products whose category has no row are listed under their raw name.
func (s *Service) Menu(ctx context.Context) ([]transport.MenuSection, error) {
	products, err := s.AvailableProducts(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]int)
	sections := make([]transport.MenuSection, 0, len(categories))
	for _, c := range categories {
		byName[c.Name] = len(sections)
		sections = append(sections, transport.MenuSection{Category: c.Name, Label: c.Label, Products: []transport.ProductResponse{}})
	}
	for _, p := range products {
		idx, ok := byName[p.Category]
		if !ok {
			idx = len(sections)
			byName[p.Category] = idx
			sections = append(sections, transport.MenuSection{Category: p.Category, Label: p.Category, Products: []transport.ProductResponse{}})
		}
		sections[idx].Products = append(sections[idx].Products, p)
	}

	nonEmpty := sections[:0]
	for _, section := range sections {
		if len(section.Products) > 0 {
			nonEmpty = append(nonEmpty, section)
		}
	}
	return nonEmpty, nil
}

// CreateProduct creates a product at the end of its category.
func (s *Service) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (transport.ProductResponse, error) {
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = defaultCategory
	}
	unit := strings.TrimSpace(req.Unit)
	if unit == "" {
		unit = defaultUnit
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}

	sortOrder, err := s.repo.NextSortOrder(ctx, category)
	if err != nil {
		return transport.ProductResponse{}, err
	}

	product, err := s.repo.CreateProduct(ctx, repository.CreateProductParams{
		Name:        strings.TrimSpace(req.Name),
		Description: trimPtr(req.Description),
		Price:       req.Price,
		Unit:        unit,
		Category:    category,
		Available:   available,
		SortOrder:   sortOrder,
	})
	if err != nil {
		return transport.ProductResponse{}, err
	}

	s.invalidate(ctx)
	s.log.Info("product created", "id", product.ID, "name", product.Name, "category", product.Category)
	return toProductResponse(product), nil
}

// UpdateProduct updates an existing product.
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, req transport.UpdateProductRequest) (transport.ProductResponse, error) {
	product, err := s.repo.UpdateProduct(ctx, repository.UpdateProductParams{
		ID:          id,
		Name:        trimPtr(req.Name),
		Description: trimPtr(req.Description),
		Price:       req.Price,
		Unit:        trimPtr(req.Unit),
		Category:    trimPtr(req.Category),
		Available:   req.Available,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		return transport.ProductResponse{}, err
	}

	s.invalidate(ctx)
	s.log.Info("product updated", "id", product.ID, "name", product.Name)
	return toProductResponse(product), nil
}

// SetAvailability toggles whether a product can be ordered.
func (s *Service) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (transport.ProductResponse, error) {
	product, err := s.repo.UpdateProduct(ctx, repository.UpdateProductParams{ID: id, Available: &available})
	if err != nil {
		return transport.ProductResponse{}, err
	}

	s.invalidate(ctx)
	s.log.Info("product availability changed", "id", product.ID, "available", available)
	return toProductResponse(product), nil
}

// DeleteProduct deletes a product.
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.log.Info("product deleted", "id", id)
	return nil
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]transport.CategoryResponse, error) {
	items, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]transport.CategoryResponse, 0, len(items))
	for _, item := range items {
		result = append(result, toCategoryResponse(item))
	}
	return result, nil
}

// UpsertCategory creates a category or refreshes its label.
func (s *Service) UpsertCategory(ctx context.Context, req transport.UpsertCategoryRequest) (transport.CategoryResponse, error) {
	category, err := s.repo.UpsertCategory(ctx, repository.UpsertCategoryParams{
		Name:      strings.ToLower(strings.TrimSpace(req.Name)),
		Label:     strings.TrimSpace(req.Label),
		SortOrder: req.SortOrder,
	})
	if err != nil {
		return transport.CategoryResponse{}, err
	}
	s.log.Info("category saved", "id", category.ID, "name", category.Name)
	return toCategoryResponse(category), nil
}

// UpdateCategory updates a category label or position.
func (s *Service) UpdateCategory(ctx context.Context, id uuid.UUID, req transport.UpdateCategoryRequest) (transport.CategoryResponse, error) {
	category, err := s.repo.UpdateCategory(ctx, repository.UpdateCategoryParams{
		ID:        id,
		Label:     trimPtr(req.Label),
		SortOrder: req.SortOrder,
	})
	if err != nil {
		return transport.CategoryResponse{}, err
	}
	return toCategoryResponse(category), nil
}

// DeleteCategory deletes a category that no product references.
func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	category, err := s.repo.GetCategoryByID(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.repo.CountProductsInCategory(ctx, category.Name)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.Conflict("category is in use")
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.log.Info("category deleted", "id", id, "name", category.Name)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("catalog cache invalidation failed", "error", err)
	}
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}

func toProductResponse(product repository.Product) transport.ProductResponse {
	return transport.ProductResponse{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Unit:        product.Unit,
		Category:    product.Category,
		Available:   product.Available,
		SortOrder:   product.SortOrder,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

func toProductListResponse(items []repository.Product, total, page, pageSize int) transport.ProductListResponse {
	responses := make([]transport.ProductResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, toProductResponse(item))
	}
	totalPages := (total + pageSize - 1) / pageSize
	return transport.ProductListResponse{
		Items:      responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

func toCategoryResponse(category repository.Category) transport.CategoryResponse {
	return transport.CategoryResponse{
		ID:        category.ID,
		Name:      category.Name,
		Label:     category.Label,
		SortOrder: category.SortOrder,
	}
}
