// Package catalog provides the menu catalog bounded context module.
package catalog

import (
	"maremio_backend/internal/catalog/handler"
	"maremio_backend/internal/catalog/repository"
	"maremio_backend/internal/catalog/service"
	apphttp "maremio_backend/internal/http"
	"maremio_backend/platform/logger"
	"maremio_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the catalog module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// SetCache enables the Redis snapshot cache.
func (m *Module) SetCache(cache service.SnapshotCache) {
	m.service.SetCache(cache)
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "catalog"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts catalog routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/catalog")
	group.GET("/products", m.handler.ListProducts)
	group.GET("/products/available", m.handler.ListAvailableProducts)
	group.GET("/products/:id", m.handler.GetProductByID)
	group.POST("/products", m.handler.CreateProduct)
	group.PUT("/products/:id", m.handler.UpdateProduct)
	group.PATCH("/products/:id/availability", m.handler.SetAvailability)
	group.DELETE("/products/:id", m.handler.DeleteProduct)

	group.GET("/categories", m.handler.ListCategories)
	group.POST("/categories", m.handler.UpsertCategory)
	group.PUT("/categories/:id", m.handler.UpdateCategory)
	group.DELETE("/categories/:id", m.handler.DeleteCategory)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
