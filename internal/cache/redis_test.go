package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRedis connects to LABDESK_TEST_REDIS or skips.
func newTestRedis(t *testing.T) *Redis {
	t.Helper()
	addr := os.Getenv("LABDESK_TEST_REDIS")
	if addr == "" {
		t.Skip("LABDESK_TEST_REDIS not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, rdb.Ping(ctx).Err())
	return NewRedis(rdb, "labdesk-test-"+t.Name(), time.Minute, nil)
}

func TestRedis_InvalidateByFragment(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()

	c.Set(ctx, "instruments", []byte(`[1]`))
	c.Set(ctx, "instruments/7", []byte(`{}`))
	c.Set(ctx, "sops", []byte(`[]`))

	assert.Equal(t, 2, c.Invalidate(ctx, "instruments"))
	_, ok := c.Get(ctx, "instruments")
	assert.False(t, ok)
	got, ok := c.Get(ctx, "sops")
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(got))
	assert.Equal(t, 0, c.Invalidate(ctx, "instruments"))

	c.Invalidate(ctx, "sops")
}
