// Package cache provides a Redis read-through cache in front of cart
// persistence. The database stays the source of truth; cache failures never
// fail a request.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xenking/storefront-api/internal/domain/cart"
)

var _ cart.Repository = (*CartCache)(nil)

// CartCache decorates a cart.Repository with a per-user Redis cache.
type CartCache struct {
	inner  cart.Repository
	client *redis.Client
	ttl    time.Duration
}

// NewCartCache wraps inner with a Redis cache. Entries expire after ttl as a
// backstop against missed invalidations.
func NewCartCache(inner cart.Repository, client *redis.Client, ttl time.Duration) *CartCache {
	return &CartCache{inner: inner, client: client, ttl: ttl}
}

func cartKey(userID string) string {
	return "cart:" + userID
}

// FindByUser serves from Redis when possible and falls back to the inner
// repository, populating the cache on the way out.
func (c *CartCache) FindByUser(ctx context.Context, userID string) (*cart.Cart, error) {
	data, err := c.client.Get(ctx, cartKey(userID)).Bytes()
	if err == nil {
		var cached cart.Cart
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
		// Corrupt entry: drop it and fall through to the database.
		c.Evict(ctx, userID)
	} else if !errors.Is(err, redis.Nil) {
		zctx.From(ctx).Debug("cart cache read failed", zap.Error(err))
	}

	found, err := c.inner.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, found)
	return found, nil
}

// Save writes through to the inner repository and refreshes the cache.
func (c *CartCache) Save(ctx context.Context, crt *cart.Cart) error {
	if err := c.inner.Save(ctx, crt); err != nil {
		return err
	}
	c.store(ctx, crt)
	return nil
}

// Delete passes through. Key eviction is keyed by user, so callers that
// delete by cart ID must also call Evict; the TTL covers anyone who forgets.
func (c *CartCache) Delete(ctx context.Context, cartID string) error {
	return c.inner.Delete(ctx, cartID)
}

// Evict drops the user's cached cart. Best effort.
func (c *CartCache) Evict(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		zctx.From(ctx).Debug("cart cache evict failed", zap.Error(err))
	}
}

func (c *CartCache) store(ctx context.Context, crt *cart.Cart) {
	data, err := json.Marshal(crt)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cartKey(crt.UserID), data, c.ttl).Err(); err != nil {
		zctx.From(ctx).Debug("cart cache write failed", zap.Error(err))
	}
}
