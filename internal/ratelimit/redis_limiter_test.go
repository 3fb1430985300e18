package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

// newClockedLimiter returns a limiter whose clock the test advances by hand.
func newClockedLimiter(client *redis.Client) (*RedisLimiter, *time.Time) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	limiter := NewRedisLimiter(client, testLogger())
	limiter.now = func() time.Time { return now }
	return limiter, &now
}

func TestRedisLimiter_TelegramMessages(t *testing.T) {
	mr, client := setupTestRedis(t)
	limiter, now := newClockedLimiter(client)
	ctx := context.Background()
	key := Key(ScopeMessage, "555")

	for i, wantRemaining := range []int{2, 1, 0} {
		res, err := limiter.Check(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "message %d", i+1)
		assert.Equal(t, wantRemaining, res.Remaining)
		*now = now.Add(time.Second)
	}

	res, err := limiter.Check(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 57, res.RetryAfter(*now), "window frees when the first message ages out")

	assert.True(t, mr.Exists("ratelimit:msg:555"))
	assert.Equal(t, time.Minute, mr.TTL("ratelimit:msg:555"))
}

func TestRedisLimiter_SlidingWindow(t *testing.T) {
	_, client := setupTestRedis(t)
	limiter, now := newClockedLimiter(client)
	ctx := context.Background()
	key := Key(ScopeHTTP, "10.0.0.7")

	for i := 0; i < 2; i++ {
		res, err := limiter.Check(ctx, key, 2, time.Second)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := limiter.Check(ctx, key, 2, time.Second)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	*now = now.Add(1100 * time.Millisecond)

	res, err = limiter.Check(ctx, key, 2, time.Second)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRedisLimiter_KeysAreIndependent(t *testing.T) {
	_, client := setupTestRedis(t)
	limiter, _ := newClockedLimiter(client)
	ctx := context.Background()

	res, err := limiter.Check(ctx, Key(ScopeQuery, "1"), 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.Check(ctx, Key(ScopeQuery, "2"), 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRedisLimiter_ZeroLimitDenies(t *testing.T) {
	_, client := setupTestRedis(t)
	limiter, _ := newClockedLimiter(client)

	res, err := limiter.Check(context.Background(), Key(ScopeQuery, "1"), 0, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}

func TestRedisLimiter_RedisDown(t *testing.T) {
	mr, client := setupTestRedis(t)
	limiter, _ := newClockedLimiter(client)
	mr.Close()

	_, err := limiter.Check(context.Background(), Key(ScopeQuery, "1"), 1, time.Minute)
	assert.Error(t, err)
}
