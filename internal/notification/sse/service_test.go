package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"maremio_backend/platform/logger"
)

func TestBroadcastReachesConnectedClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := New(logger.Discard())
	r := gin.New()
	r.GET("/stream", svc.Handler(func(*gin.Context) (uuid.UUID, bool) { return uuid.New(), true }))

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/stream", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		r.ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for svc.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never connected")
		}
		time.Sleep(5 * time.Millisecond)
	}

	svc.Broadcast(Event{Type: EventOrderCreated, Message: "Nuovo ordine 24-100"})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event:connected") || !strings.Contains(body, "event:order_created") {
		t.Fatalf("unexpected stream body:\n%s", body)
	}
	if svc.Clients() != 0 {
		t.Fatalf("expected client removed after disconnect")
	}
}

func TestRejectsUnknownOperator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := New(logger.Discard())
	r := gin.New()
	r.GET("/stream", svc.Handler(func(*gin.Context) (uuid.UUID, bool) { return uuid.Nil, false }))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stream", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
