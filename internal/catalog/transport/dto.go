package transport

import "github.com/google/uuid"

// Products

type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	Price       float64 `json:"price" validate:"min=0"`
	Unit        string  `json:"unit" validate:"omitempty,max=20"`
	Category    string  `json:"category" validate:"omitempty,max=50"`
	Available   *bool   `json:"available,omitempty"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=1000"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,min=0"`
	Unit        *string  `json:"unit,omitempty" validate:"omitempty,min=1,max=20"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,min=1,max=50"`
	Available   *bool    `json:"available,omitempty"`
	SortOrder   *int     `json:"sortOrder,omitempty" validate:"omitempty,min=0"`
}

type SetAvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

type ListProductsRequest struct {
	Search        string `form:"search" validate:"max=100"`
	Category      string `form:"category" validate:"max=50"`
	AvailableOnly bool   `form:"availableOnly"`
	Page          int    `form:"page" validate:"omitempty,min=1"`
	PageSize      int    `form:"pageSize" validate:"omitempty,min=1,max=200"`
}

type ProductResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Unit        string    `json:"unit"`
	Category    string    `json:"category"`
	Available   bool      `json:"available"`
	SortOrder   *int      `json:"sortOrder,omitempty"`
	CreatedAt   string    `json:"createdAt"`
	UpdatedAt   string    `json:"updatedAt"`
}

type ProductListResponse struct {
	Items      []ProductResponse `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

// Categories

type UpsertCategoryRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=50"`
	Label     string `json:"label" validate:"required,min=1,max=100"`
	SortOrder *int   `json:"sortOrder,omitempty" validate:"omitempty,min=0"`
}

type UpdateCategoryRequest struct {
	Label     *string `json:"label,omitempty" validate:"omitempty,min=1,max=100"`
	SortOrder *int    `json:"sortOrder,omitempty" validate:"omitempty,min=0"`
}

type CategoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	SortOrder *int      `json:"sortOrder,omitempty"`
}

// MenuSection is one category of the public menu with its available products.
type MenuSection struct {
	Category string            `json:"category"`
	Label    string            `json:"label"`
	Products []ProductResponse `json:"products"`
}
