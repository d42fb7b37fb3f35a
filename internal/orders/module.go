// Package orders provides the orders bounded context module.
package orders

import (
	"maremio_backend/internal/events"
	apphttp "maremio_backend/internal/http"
	"maremio_backend/internal/orders/handler"
	"maremio_backend/internal/orders/repository"
	"maremio_backend/internal/orders/service"
	"maremio_backend/platform/logger"
	"maremio_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the orders module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the orders module.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, val, bus, log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "orders"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// SetCustomerResolver links new orders to the customer directory.
func (m *Module) SetCustomerResolver(resolver service.CustomerResolver) {
	m.service.SetCustomerResolver(resolver)
}

// RegisterRoutes mounts order routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/orders")
	group.GET("", m.handler.List)
	group.GET("/next-number", m.handler.NextNumber)
	group.GET("/stats", m.handler.Stats)
	group.GET("/export", m.handler.Export)
	group.GET("/export/portions", m.handler.ExportPortions)
	group.GET("/:id", m.handler.Get)
	group.POST("", m.handler.Create)
	group.PUT("/:id", m.handler.Update)
	group.DELETE("/:id", m.handler.Delete)
}

var _ apphttp.Module = (*Module)(nil)
