package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"maremio_backend/platform/logger"
)

type gatewayConfig struct {
	url, key, device string
}

func (g gatewayConfig) GetWhatsAppURL() string         { return g.url }
func (g gatewayConfig) GetWhatsAppKey() string         { return g.key }
func (g gatewayConfig) GetWhatsAppDeviceID() string    { return g.device }
func (g gatewayConfig) GetWhatsAppVerifyToken() string { return "" }
func (g gatewayConfig) IsWhatsAppEnabled() bool        { return g.url != "" }

func TestSendMessage(t *testing.T) {
	var got gowaRequest
	var auth, device string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/send/message" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		device = r.Header.Get("X-Device-Id")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"results":{"message_id":"wamid.1"}}`))
	}))
	defer srv.Close()

	client := NewClient(gatewayConfig{url: srv.URL + "/", key: "user:pass", device: "dev-1"}, logger.Discard())
	id, err := client.SendMessage(context.Background(), "333 123 4567", "Ciao")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != "wamid.1" {
		t.Fatalf("expected message id, got %q", id)
	}
	if got.Phone != "393331234567" || got.Message != "Ciao" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if auth != "Basic dXNlcjpwYXNz" || device != "dev-1" {
		t.Fatalf("unexpected headers: %q %q", auth, device)
	}
}

func TestSendMessageGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "device offline", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(gatewayConfig{url: srv.URL}, logger.Discard())
	if _, err := client.SendMessage(context.Background(), "3331234567", "Ciao"); err == nil {
		t.Fatalf("expected error on 503")
	}
}

func TestNilClientIsNoop(t *testing.T) {
	client := NewClient(gatewayConfig{}, logger.Discard())
	if client != nil {
		t.Fatalf("expected nil client without url")
	}
	if _, err := client.SendMessage(context.Background(), "3331234567", "Ciao"); err != nil {
		t.Fatalf("expected nil client to be a no-op, got %v", err)
	}
}
