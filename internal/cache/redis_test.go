package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Domenick1991/pitchbooking/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisCache(t *testing.T) {
	c := NewRedisCache(config.RedisConfig{Addr: "localhost:6379"}, time.Minute, WithInstance("kiosk-1"))
	assert.NotNil(t, c)
	assert.Equal(t, time.Minute, c.venuesTTL)
	assert.Equal(t, "kiosk-1", c.instance)
	assert.NoError(t, c.Close())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "cache:venues", venuesKey())
	assert.Equal(t, "session:remembered_user", rememberedUserKey(""))
	assert.Equal(t, "session:remembered_user:kiosk-1", rememberedUserKey("kiosk-1"))
	assert.NotEqual(t, rememberedUserKey("kiosk-1"), rememberedUserKey("kiosk-2"))
	assert.Equal(t, "lock:tick:reminder:u1", tickLockKey("reminder", "u1"))
	assert.Equal(t, "push:u1", pushChannel("u1"))
}

// liveCache connects to PITCH_TEST_REDIS_ADDR and skips when it is unset.
func liveCache(t *testing.T, opts ...Option) *RedisCache {
	t.Helper()
	addr := os.Getenv("PITCH_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PITCH_TEST_REDIS_ADDR not set")
	}
	c := NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: addr}), time.Minute, opts...)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestTickLock_ReleaseKeepsForeignToken(t *testing.T) {
	c := liveCache(t)
	ctx := context.Background()
	task, user := "reminder", "lock-"+t.Name()
	t.Cleanup(func() { c.client.Del(ctx, tickLockKey(task, user)) })

	token, err := c.AcquireTickLock(ctx, task, user, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	again, err := c.AcquireTickLock(ctx, task, user, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, again)

	// a stale owner must not drop the lock
	require.NoError(t, c.ReleaseTickLock(ctx, task, user, "stale"))
	held, err := c.client.Get(ctx, tickLockKey(task, user)).Result()
	require.NoError(t, err)
	assert.Equal(t, token, held)

	require.NoError(t, c.ReleaseTickLock(ctx, task, user, token))
	n, err := c.client.Exists(ctx, tickLockKey(task, user)).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRememberedUser_ScopedPerInstance(t *testing.T) {
	a := liveCache(t, WithInstance("kiosk-a"))
	b := liveCache(t, WithInstance("kiosk-b"))
	ctx := context.Background()
	t.Cleanup(func() {
		_ = a.ForgetUser(ctx)
		_ = b.ForgetUser(ctx)
	})

	require.NoError(t, a.RememberUser(ctx, "u1"))
	require.NoError(t, b.RememberUser(ctx, "u2"))

	got, err := a.RememberedUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", got)

	require.NoError(t, b.ForgetUser(ctx))
	got, err = a.RememberedUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", got)
}
