package drafts

import (
	"context"
	"testing"
	"time"

	"maremio_backend/platform/apperr"

	"github.com/google/uuid"
)

func TestRegistryOpenGetDiscard(t *testing.T) {
	r := NewRegistry(Deps{Catalog: &fakeCatalog{}, Sink: &fakeSink{}}, time.Hour)

	s := r.Open()
	got, err := r.Get(s.ID())
	if err != nil || got != s {
		t.Fatalf("expected to get the opened session, err %v", err)
	}

	r.Discard(s.ID())
	if _, err := r.Get(s.ID()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found after discard, got %v", err)
	}
	if _, err := s.StartManual(context.Background()); err != ErrSessionClosed {
		t.Fatalf("expected discarded session closed, got %v", err)
	}

	r.Discard(uuid.New())
}

func TestRegistrySweepExpiresIdleSessions(t *testing.T) {
	now := time.Date(2024, 12, 20, 10, 0, 0, 0, time.UTC)
	r := NewRegistry(Deps{Catalog: &fakeCatalog{}, Sink: &fakeSink{}}, 30*time.Minute)
	r.now = func() time.Time { return now }

	idle := r.Open()
	now = now.Add(20 * time.Minute)
	active := r.Open()

	now = now.Add(15 * time.Minute)
	if n := r.Sweep(); n != 1 {
		t.Fatalf("expected 1 expired session, got %d", n)
	}
	if _, err := r.Get(idle.ID()); err == nil {
		t.Fatalf("expected idle session removed")
	}
	if _, err := r.Get(active.ID()); err != nil {
		t.Fatalf("expected active session kept, got %v", err)
	}
}

func TestRegistryRunClosesOnShutdown(t *testing.T) {
	r := NewRegistry(Deps{Catalog: &fakeCatalog{}, Sink: &fakeSink{}}, time.Hour)
	r.Open()
	r.Open()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()
	<-done

	if r.Len() != 0 {
		t.Fatalf("expected all sessions closed, got %d", r.Len())
	}
}
