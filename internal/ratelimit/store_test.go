package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestMemoryStore_FixedWindow(t *testing.T) {
	clock := newTestClock()
	store := NewMemoryStore(clock.Now)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		count, ttl, err := store.Increment(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, count)
		assert.Equal(t, time.Minute, ttl)
	}

	clock.Advance(59 * time.Second)
	count, ttl, err := store.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)
	assert.Equal(t, time.Second, ttl)

	clock.Advance(time.Second)
	count, _, err = store.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "new window starts at resetAt")
}

func TestMemoryStore_KeysAreIndependent(t *testing.T) {
	store := NewMemoryStore(newTestClock().Now)
	ctx := context.Background()

	_, _, _ = store.Increment(ctx, "a", time.Minute)
	_, _, _ = store.Increment(ctx, "a", time.Minute)
	count, _, err := store.Increment(ctx, "b", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestMemoryStore_SweepsExpiredCounters(t *testing.T) {
	clock := newTestClock()
	store := NewMemoryStore(clock.Now)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		_, _, _ = store.Increment(ctx, key, 10*time.Second)
	}
	assert.Equal(t, 3, store.Len())

	clock.Advance(2 * time.Minute)
	_, _, _ = store.Increment(ctx, "d", time.Minute)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = store.Increment(ctx, "k", time.Minute)
		}()
	}
	wg.Wait()

	count, _, err := store.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 51, count)
}

func TestRedisStore_FixedWindow(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewRedisStore(rdb, "rl")
	ctx := context.Background()

	count, ttl, err := store.Increment(ctx, "login:abc", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, time.Minute, ttl)
	assert.True(t, mr.Exists("rl:login:abc"))

	mr.FastForward(30 * time.Second)
	count, ttl, err = store.Increment(ctx, "login:abc", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.Equal(t, 30*time.Second, ttl, "later hits do not extend the window")

	mr.FastForward(30 * time.Second)
	count, _, err = store.Increment(ctx, "login:abc", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestRedisStore_RestoresMissingExpiry(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewRedisStore(rdb, "")
	require.NoError(t, mr.Set("k", "4"))

	count, ttl, err := store.Increment(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)
	assert.Equal(t, time.Minute, ttl)
	assert.Equal(t, time.Minute, mr.TTL("k"))
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewRedisStore(rdb, "rl")
	mr.Close()

	_, _, err := store.Increment(context.Background(), "k", time.Minute)
	assert.Error(t, err)
}
