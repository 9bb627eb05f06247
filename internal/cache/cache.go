// Package cache keeps recent loyalty results in Redis so repeated dashboard
// reads do not re-run scoring and offer generation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/loyalty-crm/internal/domain"
	"github.com/ignite/loyalty-crm/internal/pkg/logger"
)

const keyPrefix = "loyalty:result:"

// DefaultTTL applies when NewResultCache gets a non-positive ttl.
const DefaultTTL = 15 * time.Minute

// ResultCache implements loyalty.ResultCache. Redis errors are logged and
// treated as misses.
type ResultCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewResultCache(client redis.UniversalClient, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{client: client, ttl: ttl}
}

func key(uid string) string { return keyPrefix + uid }

func (c *ResultCache) Get(ctx context.Context, uid string) (*domain.LoyaltyResult, bool) {
	data, err := c.client.Get(ctx, key(uid)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("loyalty cache get failed", "user_id", uid, "error", err)
		}
		return nil, false
	}
	var r domain.LoyaltyResult
	if err := json.Unmarshal(data, &r); err != nil {
		logger.Warn("loyalty cache entry corrupt", "user_id", uid, "error", err)
		_ = c.client.Del(ctx, key(uid)).Err()
		return nil, false
	}
	return &r, true
}

func (c *ResultCache) Set(ctx context.Context, uid string, r *domain.LoyaltyResult) {
	data, err := json.Marshal(r)
	if err != nil {
		logger.Warn("loyalty cache encode failed", "user_id", uid, "error", err)
		return
	}
	if err := c.client.Set(ctx, key(uid), data, c.ttl).Err(); err != nil {
		logger.Warn("loyalty cache set failed", "user_id", uid, "error", err)
	}
}

func (c *ResultCache) Invalidate(ctx context.Context, uid string) {
	if err := c.client.Del(ctx, key(uid)).Err(); err != nil {
		logger.Warn("loyalty cache invalidate failed", "user_id", uid, "error", err)
	}
}
