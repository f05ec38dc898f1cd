// Package throttlesvc limits credential attempts with fixed windows stored in Redis.
package throttlesvc

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/darasa/core"
)

const keyPrefix = "throttle:"

type RedisThrottler struct {
	client   *redis.Client
	attempts int
	window   time.Duration
}

var _ core.Throttler = (*RedisThrottler)(nil)

func NewRedisClient(conf *core.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
}

func NewRedisThrottler(client *redis.Client, conf *core.Config) *RedisThrottler {
	return &RedisThrottler{
		client:   client,
		attempts: conf.Throttle.Attempts,
		window:   conf.Throttle.Window,
	}
}

func (t *RedisThrottler) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	key = keyPrefix + key
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return true, 0, errors.Wrap(err, "incrementing attempts")
	}
	// first attempt of the window
	if count == 1 {
		if err = t.client.Expire(ctx, key, t.window).Err(); err != nil {
			return true, 0, errors.Wrap(err, "setting window")
		}
	}
	if count <= int64(t.attempts) {
		return true, 0, nil
	}

	ttl, err := t.client.TTL(ctx, key).Result()
	if err != nil {
		return false, t.window, errors.Wrap(err, "getting window ttl")
	}
	if ttl < 0 { // key without expiry, e.g. Expire failed before
		_ = t.client.Expire(ctx, key, t.window).Err()
		ttl = t.window
	}
	return false, ttl, nil
}
