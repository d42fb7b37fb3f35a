package whatsapp

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"maremio_backend/internal/events"
	apphttp "maremio_backend/internal/http"
	"maremio_backend/internal/whatsapp/handler"
	"maremio_backend/internal/whatsapp/repository"
	"maremio_backend/internal/whatsapp/service"
	"maremio_backend/platform/config"
	"maremio_backend/platform/logger"
	"maremio_backend/platform/validator"
)

// Module is the WhatsApp inbox module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	client  *Client
}

// NewModule wires the inbox. Outbound sending stays disabled unless the
// gateway is configured.
func NewModule(pool *pgxpool.Pool, cfg config.WhatsAppConfig, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	var client *Client
	var sender service.Sender
	if cfg.IsWhatsAppEnabled() {
		client = NewClient(cfg, log)
		sender = client
	}
	svc := service.New(repository.New(pool), sender, bus, cfg.GetWhatsAppVerifyToken(), log)
	return &Module{
		handler: handler.New(svc, val, log),
		service: svc,
		client:  client,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "whatsapp"
}

// Service returns the inbox service for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// Client returns the gateway client, nil when sending is disabled.
func (m *Module) Client() *Client {
	return m.client
}

// RegisterRoutes mounts the webhook (unauthenticated) and the inbox routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	webhook := ctx.V1.Group("/webhooks/whatsapp")
	webhook.GET("", m.handler.Verify)
	webhook.POST("", m.handler.Receive)

	group := ctx.Protected.Group("/whatsapp/conversations")
	group.GET("", m.handler.ListConversations)
	group.GET("/:id", m.handler.GetConversation)
	group.PATCH("/:id", m.handler.UpdateConversation)
	group.GET("/:id/messages", m.handler.Messages)
	group.POST("/:id/messages", m.handler.Send)
	group.POST("/:id/read", m.handler.MarkRead)
	group.POST("/:id/ai", m.handler.AIAction)
}

var _ apphttp.Module = (*Module)(nil)
