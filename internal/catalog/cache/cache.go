// Package cache keeps a Redis copy of the available-products snapshot so
// draft sessions and the public menu do not hit PostgreSQL on every open.
package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"maremio_backend/internal/catalog/transport"
	"maremio_backend/platform/config"

	"github.com/redis/go-redis/v9"
)

const snapshotKey = "catalog:available-products:v1"

// Redis stores the snapshot as one JSON value with a TTL.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedis wraps an existing client.
func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// NewClient builds a go-redis client from REDIS_URL.
func NewClient(cfg config.CatalogCacheConfig) (*redis.Client, error) {
	if cfg.GetRedisURL() == "" {
		return nil, fmt.Errorf("redis url not configured")
	}
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.GetRedisTLSInsecure() {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return redis.NewClient(opt), nil
}

// Load returns the cached snapshot. ok is false on a miss.
func (r *Redis) Load(ctx context.Context) (products []transport.ProductResponse, ok bool, err error) {
	raw, err := r.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load catalog snapshot: %w", err)
	}
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, false, fmt.Errorf("decode catalog snapshot: %w", err)
	}
	return products, true, nil
}

// Store replaces the cached snapshot.
func (r *Redis) Store(ctx context.Context, products []transport.ProductResponse) error {
	raw, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("encode catalog snapshot: %w", err)
	}
	if err := r.client.Set(ctx, snapshotKey, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("store catalog snapshot: %w", err)
	}
	return nil
}

// Invalidate drops the cached snapshot.
func (r *Redis) Invalidate(ctx context.Context) error {
	if err := r.client.Del(ctx, snapshotKey).Err(); err != nil {
		return fmt.Errorf("invalidate catalog snapshot: %w", err)
	}
	return nil
}
