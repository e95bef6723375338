package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker_Serializes(t *testing.T) {
	l := NewLocalLocker()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "order:1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, l.(*localLocker).locks)
}

func TestLocalLocker_IndependentKeys(t *testing.T) {
	l := NewLocalLocker()
	unlockA, err := l.Lock(context.Background(), "order:a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := l.Lock(ctx, "order:b")
	require.NoError(t, err)
	unlockB()
}

func TestLocalLocker_ContextCancelled(t *testing.T) {
	l := NewLocalLocker()
	unlock, err := l.Lock(context.Background(), "order:1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "order:1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	assert.Empty(t, l.(*localLocker).locks)
}

func newRedisLockers(t *testing.T, n int) ([]Locker, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	lockers := make([]Locker, n)
	for i := range lockers {
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { rdb.Close() })
		lockers[i] = NewRedisLocker(rdb, 10*time.Second)
	}
	return lockers, mr
}

func TestRedisLocker_SerializesAcrossInstances(t *testing.T) {
	lockers, mr := newRedisLockers(t, 2)
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(l Locker) {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "order:1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}(lockers[i%2])
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.False(t, mr.Exists("lock:order:1"))
}

func TestRedisLocker_HeldElsewhere(t *testing.T) {
	lockers, mr := newRedisLockers(t, 2)
	unlock, err := lockers[0].Lock(context.Background(), "order:1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:order:1"))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = lockers[1].Lock(ctx, "order:1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = lockers[1].Lock(context.Background(), "order:1")
	assert.ErrorIs(t, err, ErrNotAcquired)

	unlock()
	unlockB, err := lockers[1].Lock(context.Background(), "order:1")
	require.NoError(t, err)
	unlockB()
}
