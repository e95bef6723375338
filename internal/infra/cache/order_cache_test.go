package cache

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zippty/order-service/internal/domain"
	"zippty/order-service/internal/repository"
)

func newTestCache(t *testing.T) (OrderCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisCache(rdb, time.Minute, log.NewStdLogger(io.Discard)), mr
}

func TestPageKey(t *testing.T) {
	p := repository.Page{Number: 2, Limit: 10}

	assert.Equal(t, "orders:user:u1:g0:2:10", pageKey("u1", 0, p))
	assert.NotEqual(t, pageKey("u1", 0, p), pageKey("u1", 1, p), "invalidation must move to a new key space")
	assert.Equal(t, "orders:user:u1:gen", genKey("u1"))
}

func TestNoopCache(t *testing.T) {
	c := NewNoopCache()
	c.SetUserPage(context.Background(), "u1", 0, repository.Page{Number: 1, Limit: 10}, &OrderPage{Total: 1})

	v, gen, ok := c.GetUserPage(context.Background(), "u1", repository.Page{Number: 1, Limit: 10})
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, NoGeneration, gen)
}

func TestRedisCache_GetSetInvalidate(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	page := repository.Page{Number: 1, Limit: 10}

	_, gen, ok := c.GetUserPage(ctx, "u1", page)
	require.False(t, ok)
	assert.Equal(t, int64(0), gen)

	c.SetUserPage(ctx, "u1", gen, page, &OrderPage{Orders: []domain.Order{{ID: "o1", UserID: "u1"}}, Total: 1})
	v, _, ok := c.GetUserPage(ctx, "u1", page)
	require.True(t, ok)
	assert.Equal(t, int64(1), v.Total)
	assert.Equal(t, "o1", v.Orders[0].ID)
	assert.Greater(t, mr.TTL(pageKey("u1", 0, page)), time.Duration(0))

	_, _, ok = c.GetUserPage(ctx, "u2", page)
	assert.False(t, ok, "pages are per user")

	c.InvalidateUser(ctx, "u1")
	_, gen, ok = c.GetUserPage(ctx, "u1", page)
	assert.False(t, ok)
	assert.Equal(t, int64(1), gen)
}

func TestRedisCache_FillAfterInvalidationIsNeverServed(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	page := repository.Page{Number: 1, Limit: 10}

	// A reader misses and loads an empty history; an order is created before it fills.
	_, gen, ok := c.GetUserPage(ctx, "u1", page)
	require.False(t, ok)
	c.InvalidateUser(ctx, "u1")
	c.SetUserPage(ctx, "u1", gen, page, &OrderPage{Total: 0})

	_, _, ok = c.GetUserPage(ctx, "u1", page)
	assert.False(t, ok)
}

func TestRedisCache_NoGenerationSkipsFill(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	page := repository.Page{Number: 1, Limit: 10}

	c.SetUserPage(ctx, "u1", NoGeneration, page, &OrderPage{Total: 1})

	assert.Empty(t, mr.Keys())
}
