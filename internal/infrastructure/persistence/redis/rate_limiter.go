package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// slidingWindowScript 在单个脚本内完成裁剪、计数、条件写入与续期
// KEYS[1]=key ARGV: now_ms, window_start_ms, limit, n, ttl_ms, member_prefix
// 返回 {allowed(0/1), count}
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window_start = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local n = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
local count = redis.call('ZCARD', key)
if count + n > limit then
  return {0, count}
end
for i = 1, n do
  redis.call('ZADD', key, now, ARGV[6] .. '-' .. i)
end
redis.call('PEXPIRE', key, ttl)
return {1, count + n}
`)

// RateLimiter 基于 ZSET 的滑动窗口计数
type RateLimiter struct {
	rdb redis.Scripter
	now func() time.Time
}

// NewRateLimiter 创建限流器
func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{rdb: client.rdb, now: time.Now}
}

// AllowN 窗口内已有计数加 n 不超过 limit 时记入 n 次并放行
func (l *RateLimiter) AllowN(ctx context.Context, key string, limit, n int, window time.Duration) (bool, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.AllowN")
	span.SetAttributes(
		attribute.String("ratelimit.key", key),
		attribute.Int("ratelimit.limit", limit),
		attribute.Int("ratelimit.n", n),
		attribute.Int64("ratelimit.window_ms", window.Milliseconds()),
	)
	defer span.End()

	now := l.now().UnixMilli()
	res, err := slidingWindowScript.Run(ctx, l.rdb, []string{key},
		now,
		now-window.Milliseconds(),
		limit,
		n,
		(window * 2).Milliseconds(),
		fmt.Sprintf("%d-%s", now, uuid.NewString()),
	).Int64Slice()
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	if len(res) != 2 {
		err := fmt.Errorf("unexpected sliding window reply: %v", res)
		span.RecordError(err)
		return false, err
	}

	allowed := res[0] == 1
	span.SetAttributes(
		attribute.Int64("ratelimit.current_count", res[1]),
		attribute.Bool("ratelimit.allowed", allowed),
	)
	return allowed, nil
}
