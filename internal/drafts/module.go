package drafts

import (
	"context"
	"time"

	"maremio_backend/internal/drafts/ports"
	"maremio_backend/platform/config"
	"maremio_backend/platform/logger"
)

// Module owns the session registry and its expiry loop. Routes are mounted
// by handler.Handler, which implements http.Module.
type Module struct {
	registry *Registry
	interval time.Duration
	log      *logger.Logger
}

// NewModule creates the drafts module around the required ports.
func NewModule(catalog ports.CatalogProvider, sink ports.OrderSink, cfg config.DraftConfig, log *logger.Logger) *Module {
	registry := NewRegistry(Deps{Catalog: catalog, Sink: sink, Log: log}, cfg.GetDraftSessionTTL())
	return &Module{registry: registry, interval: cfg.GetDraftSweepInterval(), log: log}
}

// Registry returns the session registry.
func (m *Module) Registry() *Registry {
	return m.registry
}

// SetCustomerLookup links imported drafts to known customers.
func (m *Module) SetCustomerLookup(c ports.CustomerLookup) {
	m.registry.SetCustomerLookup(c)
}

// SetConversationParser enables AI import of stored WhatsApp conversations.
func (m *Module) SetConversationParser(p ports.ConversationParser) {
	m.registry.SetConversationParser(p)
}

// SetPhotoAnalyzer enables AI import of order photos.
func (m *Module) SetPhotoAnalyzer(a ports.PhotoAnalyzer) {
	m.registry.SetPhotoAnalyzer(a)
}

// Start runs the idle-session sweeper until ctx is done.
func (m *Module) Start(ctx context.Context) {
	m.log.Info("draft session sweeper started", "interval", m.interval.String())
	m.registry.Run(ctx, m.interval)
}
