// Package public is the customer-facing ordering surface: the menu, the
// delivery slots and anonymous order submission.
package public

import (
	"maremio_backend/internal/drafts/ports"
	apphttp "maremio_backend/internal/http"
	"maremio_backend/internal/public/handler"
	"maremio_backend/internal/public/service"
	"maremio_backend/platform/config"
	"maremio_backend/platform/logger"
	"maremio_backend/platform/validator"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the public ordering flow. Orders go through the same sink
// as back-office drafts, so numbering and confirmations are shared.
func NewModule(menu service.MenuReader, catalog ports.CatalogProvider, sink ports.OrderSink, cfg config.PublicConfig, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(menu, catalog, sink, log)
	return &Module{handler: handler.New(svc, val, cfg.GetPublicBaseURL(), log), service: svc}
}

// SetAssistant enables the menu chat on the public page.
func (m *Module) SetAssistant(a service.Assistant) {
	m.service.SetAssistant(a)
}

func (m *Module) Name() string {
	return "public"
}

// RegisterRoutes mounts the rate-limited public routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Public.GET("/menu", m.handler.Menu)
	ctx.Public.GET("/slots", m.handler.Slots)
	ctx.Public.POST("/orders", m.handler.PlaceOrder)
	ctx.Public.GET("/qr.png", m.handler.QRCode)
	ctx.Public.POST("/assistant", m.handler.Assistant)
}

var _ apphttp.Module = (*Module)(nil)
