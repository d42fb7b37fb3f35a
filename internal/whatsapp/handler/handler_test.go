package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"maremio_backend/internal/whatsapp/service"
	"maremio_backend/platform/logger"
	"maremio_backend/platform/validator"
)

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.New(nil, nil, nil, "verify-me", logger.Discard())
	h := New(svc, validator.New(), logger.Discard())

	r := gin.New()
	r.GET("/webhooks/whatsapp", h.Verify)
	r.POST("/webhooks/whatsapp", h.Receive)
	r.GET("/conversations/:id", h.GetConversation)
	return r
}

func TestVerifyEchoesChallenge(t *testing.T) {
	r := newTestEngine()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=1158201444", nil))

	if w.Code != http.StatusOK || w.Body.String() != "1158201444" {
		t.Fatalf("expected challenge echoed, got %d %q", w.Code, w.Body.String())
	}
}

func TestVerifyRejectsWrongToken(t *testing.T) {
	r := newTestEngine()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=1", nil))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestReceiveRejectsMalformedBody(t *testing.T) {
	r := newTestEngine()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader("{")))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestReceiveAcknowledgesEmptyPayload(t *testing.T) {
	r := newTestEngine()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp",
		strings.NewReader(`{"object":"whatsapp_business_account","entry":[]}`)))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestInvalidConversationID(t *testing.T) {
	r := newTestEngine()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conversations/not-a-uuid", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
