package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"labdesk/internal/logging"
)

// Redis is a Cache shared between labdesk replicas. Lookup failures degrade to
// misses; the upstream backend stays the source of truth.
type Redis struct {
	rdb       *redis.Client
	namespace string
	ttl       time.Duration
	log       *zap.Logger
}

// NewRedis wraps rdb. A non-positive ttl uses DefaultTTL.
func NewRedis(rdb *redis.Client, namespace string, ttl time.Duration, log *zap.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if namespace == "" {
		namespace = "labdesk"
	}
	return &Redis{rdb: rdb, namespace: namespace, ttl: ttl, log: logging.OrNop(log)}
}

// invalidateScript scans and deletes inside one script run, so no SET from
// another client lands between the scan and the delete.
var invalidateScript = redis.NewScript(`
local cursor = "0"
local n = 0
repeat
	local res = redis.call("SCAN", cursor, "MATCH", ARGV[1], "COUNT", 100)
	cursor = res[1]
	for _, k in ipairs(res[2]) do
		n = n + redis.call("DEL", k)
	end
until cursor == "0"
return n
`)

func (r *Redis) key(k string) string { return r.namespace + ":cache:" + k }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("redis cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return b, true
}

func (r *Redis) Set(ctx context.Context, key string, payload []byte) {
	if err := r.rdb.Set(ctx, r.key(key), payload, r.ttl).Err(); err != nil {
		r.log.Warn("redis cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *Redis) Invalidate(ctx context.Context, fragment string) int {
	pattern := r.key("*" + fragment + "*")
	n, err := invalidateScript.Run(ctx, r.rdb, nil, pattern).Int()
	if err != nil {
		r.log.Warn("redis cache invalidate failed", zap.String("fragment", fragment), zap.Error(err))
		return 0
	}
	return n
}
