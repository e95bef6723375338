package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"

	"zippty/order-service/internal/domain"
	"zippty/order-service/internal/repository"
)

type OrderPage struct {
	Orders []domain.Order `json:"orders"`
	Total  int64          `json:"total"`
}

// NoGeneration is returned with a miss when the generation could not be read. Filling
// with it is a no-op.
const NoGeneration int64 = -1

// OrderCache holds pages of a user's order history. Cache failures are never fatal; a miss
// falls through to the repository.
//
// GetUserPage returns the generation it looked under; a fill after a miss must pass that
// generation to SetUserPage, so a page read before an invalidation never becomes current.
type OrderCache interface {
	GetUserPage(ctx context.Context, userID string, page repository.Page) (v *OrderPage, gen int64, hit bool)
	SetUserPage(ctx context.Context, userID string, gen int64, page repository.Page, v *OrderPage)
	InvalidateUser(ctx context.Context, userID string)
}

type redisCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *log.Helper
}

// NewRedisCache stores pages under a per-user generation number; invalidation bumps the
// generation so older pages are never read again and expire on their own.
func NewRedisCache(rdb *redis.Client, ttl time.Duration, logger log.Logger) OrderCache {
	return &redisCache{rdb: rdb, ttl: ttl, log: log.NewHelper(log.With(logger, "module", "cache"))}
}

func genKey(userID string) string {
	return "orders:user:" + userID + ":gen"
}

func pageKey(userID string, gen int64, page repository.Page) string {
	return fmt.Sprintf("orders:user:%s:g%d:%d:%d", userID, gen, page.Number, page.Limit)
}

func (c *redisCache) generation(ctx context.Context, userID string) (int64, error) {
	gen, err := c.rdb.Get(ctx, genKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *redisCache) GetUserPage(ctx context.Context, userID string, page repository.Page) (*OrderPage, int64, bool) {
	gen, err := c.generation(ctx, userID)
	if err != nil {
		c.log.Warnf("cache generation for %s: %v", userID, err)
		return nil, NoGeneration, false
	}
	b, err := c.rdb.Get(ctx, pageKey(userID, gen, page)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warnf("cache get for %s: %v", userID, err)
		}
		return nil, gen, false
	}
	var v OrderPage
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, gen, false
	}
	return &v, gen, true
}

func (c *redisCache) SetUserPage(ctx context.Context, userID string, gen int64, page repository.Page, v *OrderPage) {
	if gen == NoGeneration {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, pageKey(userID, gen, page), data, c.ttl).Err(); err != nil {
		c.log.Warnf("cache set for %s: %v", userID, err)
	}
}

func (c *redisCache) InvalidateUser(ctx context.Context, userID string) {
	if err := c.rdb.Incr(ctx, genKey(userID)).Err(); err != nil {
		c.log.Warnf("cache invalidate for %s: %v", userID, err)
	}
}

type noopCache struct{}

func NewNoopCache() OrderCache { return noopCache{} }

func (noopCache) GetUserPage(context.Context, string, repository.Page) (*OrderPage, int64, bool) {
	return nil, NoGeneration, false
}

func (noopCache) SetUserPage(context.Context, string, int64, repository.Page, *OrderPage) {}

func (noopCache) InvalidateUser(context.Context, string) {}
