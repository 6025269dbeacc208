package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/pitchbooking/config"
	"github.com/Domenick1991/pitchbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseTickLockScript deletes the lock only while it still holds the
// caller's token.
var releaseTickLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisCache struct {
	client    *redis.Client
	venuesTTL time.Duration
	instance  string
}

type Option func(*RedisCache)

// WithInstance scopes per-device keys, such as the remembered user, to one
// engine instance.
func WithInstance(id string) Option {
	return func(c *RedisCache) {
		c.instance = id
	}
}

func NewRedisCache(cfg config.RedisConfig, venuesTTL time.Duration, opts ...Option) *RedisCache {
	return NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}), venuesTTL, opts...)
}

func NewRedisCacheWithClient(client *redis.Client, venuesTTL time.Duration, opts ...Option) *RedisCache {
	c := &RedisCache{client: client, venuesTTL: venuesTTL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetVenues returns nil, nil on a cache miss.
func (c *RedisCache) GetVenues(ctx context.Context) ([]domain.Venue, error) {
	data, err := c.client.Get(ctx, venuesKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var venues []domain.Venue
	if err := json.Unmarshal(data, &venues); err != nil {
		return nil, err
	}
	return venues, nil
}

func (c *RedisCache) SetVenues(ctx context.Context, venues []domain.Venue) error {
	payload, err := json.Marshal(venues)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, venuesKey(), payload, c.venuesTTL).Err()
}

// RememberedUser returns "" when nobody is remembered.
func (c *RedisCache) RememberedUser(ctx context.Context) (string, error) {
	id, err := c.client.Get(ctx, rememberedUserKey(c.instance)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return id, nil
}

func (c *RedisCache) RememberUser(ctx context.Context, userID string) error {
	return c.client.Set(ctx, rememberedUserKey(c.instance), userID, 0).Err()
}

func (c *RedisCache) ForgetUser(ctx context.Context) error {
	return c.client.Del(ctx, rememberedUserKey(c.instance)).Err()
}

// AcquireTickLock keeps two engine instances from running the same task for
// the same user at once. It returns the owner token, or "" when the lock is
// held elsewhere.
func (c *RedisCache) AcquireTickLock(ctx context.Context, task, userID string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, tickLockKey(task, userID), token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// ReleaseTickLock is a no-op once the lock expired and another instance took
// it over.
func (c *RedisCache) ReleaseTickLock(ctx context.Context, task, userID, token string) error {
	return releaseTickLockScript.Run(ctx, c.client, []string{tickLockKey(task, userID)}, token).Err()
}

func venuesKey() string {
	return "cache:venues"
}

func rememberedUserKey(instance string) string {
	if instance == "" {
		return "session:remembered_user"
	}
	return fmt.Sprintf("session:remembered_user:%s", instance)
}

func tickLockKey(task, userID string) string {
	return fmt.Sprintf("lock:tick:%s:%s", task, userID)
}

// PublishPush fans a push payload out to the user's connected devices.
func (c *RedisCache) PublishPush(ctx context.Context, userID string, payload []byte) error {
	return c.client.Publish(ctx, pushChannel(userID), payload).Err()
}

func pushChannel(userID string) string {
	return fmt.Sprintf("push:%s", userID)
}
