// Package customers provides the customer directory module.
package customers

import (
	"maremio_backend/internal/customers/handler"
	"maremio_backend/internal/customers/repository"
	"maremio_backend/internal/customers/service"
	apphttp "maremio_backend/internal/http"
	"maremio_backend/platform/logger"
	"maremio_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the customers module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the customers module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "customers"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts customer routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/customers", m.handler.List)
	ctx.Protected.GET("/customers/lookup", m.handler.Lookup)
	ctx.Protected.GET("/customers/:id", m.handler.Get)
	ctx.Protected.PUT("/customers/:id", m.handler.Update)
}

var _ apphttp.Module = (*Module)(nil)
