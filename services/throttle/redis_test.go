package throttlesvc

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/testutil"
)

// redisAddrEnv names the env var holding the address of the Redis test server.
const redisAddrEnv = "TEST_REDIS_ADDR"

func TestRedisThrottler_Allow(t *testing.T) {
	addr := os.Getenv(redisAddrEnv)
	if addr == "" {
		t.Skipf("%s not set", redisAddrEnv)
	}

	conf := testutil.NewConfig()
	conf.Redis.Addr = addr
	conf.Throttle.Attempts = 2
	conf.Throttle.Window = time.Minute

	client := NewRedisClient(conf)
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())

	key := "test:" + t.Name() + ":" + time.Now().Format(time.RFC3339Nano)
	t.Cleanup(func() { _ = client.Del(ctx, keyPrefix+key).Err() })

	throttler := NewRedisThrottler(client, conf)
	for i := 1; i <= conf.Throttle.Attempts; i++ {
		ok, retry, err := throttler.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i)
		assert.Zero(t, retry)
	}

	ok, retry, err := throttler.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, retry > 0 && retry <= conf.Throttle.Window, "retry = %v", retry)

	ok, _, err = throttler.Allow(ctx, key+":other")
	require.NoError(t, err)
	assert.True(t, ok, "keys are throttled separately")
	_ = client.Del(ctx, keyPrefix+key+":other").Err()
}

func TestRedisThrottler_unreachable(t *testing.T) {
	conf := testutil.NewConfig()
	conf.Redis.Addr = "127.0.0.1:1"

	client := NewRedisClient(conf)
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ok, _, err := NewRedisThrottler(client, conf).Allow(ctx, "lol")
	assert.Error(t, err)
	assert.True(t, ok, "attempts are allowed when redis fails")
}
