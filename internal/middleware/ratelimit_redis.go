package middleware

import (
	"context"
	"time"

	"github.com/phuslu/log"
	"github.com/redis/go-redis/v9"
)

// windowScript counts a hit and starts the window on the first one. It
// returns the hit count of the current window.
const windowScript = `
local hits = redis.call("INCR", KEYS[1])
if hits == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return hits
`

const redisCallTimeout = 250 * time.Millisecond

// RedisLimiter shares fixed-window counters between API replicas. It fails
// open when redis is unreachable.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	script *redis.Script
}

func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		script: redis.NewScript(windowScript),
	}
}

func (l *RedisLimiter) key(key string) string {
	if l.prefix == "" {
		return key
	}
	return l.prefix + ":" + key
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	if l == nil || l.client == nil || key == "" {
		return true
	}
	windowMS := max(window.Milliseconds(), 1)

	ctx, cancel := context.WithTimeout(ctx, redisCallTimeout)
	defer cancel()
	hits, err := l.script.Run(ctx, l.client, []string{l.key(key)}, windowMS).Int64()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis rate limit check failed, allowing request")
		return true
	}
	return hits <= int64(limit)
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
