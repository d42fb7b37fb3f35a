package cache

import (
	"context"
	"testing"
	"time"

	"maremio_backend/internal/catalog/transport"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, time.Minute), mr
}

func TestLoadMissReturnsNotOK(t *testing.T) {
	c, _ := newTestCache(t)
	products, ok, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || products != nil {
		t.Fatalf("expected miss, got ok=%v products=%v", ok, products)
	}
}

func TestStoreLoadInvalidate(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	want := []transport.ProductResponse{
		{ID: uuid.New(), Name: "Crudo di gamberi", Price: 18, Unit: "pz", Category: "crudi", Available: true},
	}
	if err := c.Store(ctx, want); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, ok, err := c.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if len(got) != 1 || got[0].Name != want[0].Name || got[0].ID != want[0].ID {
		t.Fatalf("unexpected snapshot: %+v", got)
	}

	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists(snapshotKey) {
		t.Fatalf("expected key removed")
	}
}

func TestSnapshotExpires(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	if err := c.Store(ctx, []transport.ProductResponse{{Name: "Orata"}}); err != nil {
		t.Fatalf("store: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, ok, _ := c.Load(ctx); ok {
		t.Fatalf("expected snapshot to expire")
	}
}
