package adapters

import (
	"context"
	"fmt"

	catalogsvc "maremio_backend/internal/catalog/service"
	"maremio_backend/internal/catalog/transport"
	"maremio_backend/internal/drafts/ports"
	"maremio_backend/internal/extraction"
)

// AvailableProductsReader is the narrow catalog view the drafts need.
type AvailableProductsReader interface {
	AvailableProducts(ctx context.Context) ([]transport.ProductResponse, error)
}

// DraftsCatalogProvider adapts the catalog service to drafts ports.CatalogProvider.
type DraftsCatalogProvider struct {
	catalog AvailableProductsReader
}

// NewDraftsCatalogProvider creates a new catalog provider adapter.
func NewDraftsCatalogProvider(catalog AvailableProductsReader) *DraftsCatalogProvider {
	return &DraftsCatalogProvider{catalog: catalog}
}

// AvailableProducts returns the sellable products as extraction snapshots.
func (a *DraftsCatalogProvider) AvailableProducts(ctx context.Context) ([]extraction.Product, error) {
	products, err := a.catalog.AvailableProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog adapter: available products: %w", err)
	}
	return ToExtractionProducts(products), nil
}

// ToExtractionProducts converts catalog responses into matcher input.
func ToExtractionProducts(products []transport.ProductResponse) []extraction.Product {
	out := make([]extraction.Product, 0, len(products))
	for _, p := range products {
		product := extraction.Product{
			ID:        p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Unit:      p.Unit,
			Category:  p.Category,
			Available: p.Available,
		}
		if p.Description != nil {
			product.Description = *p.Description
		}
		if p.SortOrder != nil {
			product.SortOrder = *p.SortOrder
		}
		out = append(out, product)
	}
	return out
}

var (
	_ ports.CatalogProvider   = (*DraftsCatalogProvider)(nil)
	_ AvailableProductsReader = (*catalogsvc.Service)(nil)
)
