package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"zippty/order-service/internal/conf"
)

// NewRedisClient dials Redis and pings it once so a bad address fails at startup.
func NewRedisClient(ctx context.Context, c conf.Redis) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.PoolSize / 10,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}
