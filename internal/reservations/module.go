// Package reservations provides the tables and reservations bounded context module.
package reservations

import (
	"maremio_backend/internal/events"
	apphttp "maremio_backend/internal/http"
	"maremio_backend/internal/reservations/handler"
	"maremio_backend/internal/reservations/repository"
	"maremio_backend/internal/reservations/service"
	"maremio_backend/platform/logger"
	"maremio_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the reservations module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the reservations module.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), bus, log)
	return &Module{handler: handler.New(svc, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "reservations"
}

// RegisterRoutes mounts table, reservation and public booking routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	tables := ctx.Protected.Group("/tables")
	tables.GET("", m.handler.ListTables)
	tables.POST("", m.handler.CreateTable)
	tables.PUT("/:id", m.handler.UpdateTable)
	tables.DELETE("/:id", m.handler.DeleteTable)

	group := ctx.Protected.Group("/reservations")
	group.GET("", m.handler.List)
	group.GET("/:id", m.handler.Get)
	group.POST("", m.handler.Create)
	group.PUT("/:id", m.handler.Update)
	group.PATCH("/:id/status", m.handler.ChangeStatus)
	group.PUT("/:id/table", m.handler.AssignTable)
	group.DELETE("/:id", m.handler.Delete)

	ctx.Public.GET("/reservations/slots", m.handler.BookingSlots)
	ctx.Public.POST("/reservations", m.handler.Book)
}

var _ apphttp.Module = (*Module)(nil)
