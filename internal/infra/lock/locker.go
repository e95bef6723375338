package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock is held elsewhere for longer than the caller
// is willing to wait.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker serializes work on a key. The returned unlock must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type redisLocker struct {
	rs     *redsync.Redsync
	expiry time.Duration
}

// NewRedisLocker returns a Locker backed by a Redis distributed mutex, shared by every
// instance of the service.
func NewRedisLocker(rdb *redis.Client, expiry time.Duration) Locker {
	return &redisLocker{rs: redsync.New(goredis.NewPool(rdb)), expiry: expiry}
}

func (l *redisLocker) Lock(ctx context.Context, key string) (func(), error) {
	m := l.rs.NewMutex("lock:"+key,
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(32),
		redsync.WithRetryDelay(50*time.Millisecond),
	)
	if err := m.LockContext(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrNotAcquired, err)
	}
	return func() {
		// A lost unlock only delays the next holder until expiry.
		_, _ = m.UnlockContext(context.Background())
	}, nil
}

type localLocker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker returns an in-process Locker for single-instance deployments.
func NewLocalLocker() Locker {
	return &localLocker{locks: make(map[string]*entry)}
}

func (l *localLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

func (l *localLocker) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}
