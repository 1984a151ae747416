package cache

import (
	"context"
	"errors"
	"time"

	"safaristay/internal/config"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg config.RedisConfig) *RedisCache {
	return NewRedisCacheFromClient(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}))
}

func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetToken returns the cached gateway token, or "" on a miss.
func (c *RedisCache) GetToken(ctx context.Context) (string, error) {
	token, err := c.client.Get(ctx, gatewayTokenKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return token, err
}

func (c *RedisCache) SetToken(ctx context.Context, token string, ttl time.Duration) error {
	return c.client.Set(ctx, gatewayTokenKey(), token, ttl).Err()
}

// AcquireNotificationLock claims a short lock for one tracking id so duplicate
// deliveries arriving together are processed once.
func (c *RedisCache) AcquireNotificationLock(ctx context.Context, trackingID string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, notificationLockKey(trackingID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseNotificationLock(ctx context.Context, trackingID string) error {
	return c.client.Del(ctx, notificationLockKey(trackingID)).Err()
}

func gatewayTokenKey() string {
	return "pesapal:token"
}

func notificationLockKey(trackingID string) string {
	return "ipn:lock:" + trackingID
}
