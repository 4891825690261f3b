package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// luaSlidingWindow implements the sliding window atomically over a
// sorted set of request timestamps.
// KEYS[1] = rate limit key
// ARGV[1] = window in milliseconds
// ARGV[2] = current timestamp (unix milliseconds)
// ARGV[3] = limit
// ARGV[4] = unique member for this request
// Returns: [allowed (1/0), remaining]
const luaSlidingWindow = `
local key = KEYS[1]
local window = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call("ZREMRANGEBYSCORE", key, 0, now - window)
local count = redis.call("ZCARD", key)

if count >= limit then
	return {0, 0}
end

redis.call("ZADD", key, now, ARGV[4])
redis.call("PEXPIRE", key, window)

return {1, limit - count - 1}
`

// RedisSlidingWindow keeps window state in Redis so the quota is shared
// across server instances. Same contract as SlidingWindow.
type RedisSlidingWindow struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedisSlidingWindow(client *redis.Client, limit int, window time.Duration) *RedisSlidingWindow {
	return &RedisSlidingWindow{client: client, limit: limit, window: window}
}

func (l *RedisSlidingWindow) Check(ctx context.Context, addr string, now time.Time) (Result, bool, error) {
	res := Result{Limit: l.limit, ResetAt: now.Add(l.window)}

	nowMs := now.UnixMilli()
	member := strconv.FormatInt(now.UnixNano(), 10)

	cmd := l.client.Eval(ctx, luaSlidingWindow,
		[]string{"ratelimit:ip:" + addr},
		l.window.Milliseconds(), nowMs, l.limit, member)
	raw, err := cmd.Result()
	if err != nil {
		return res, false, err
	}

	vals, ok := raw.([]interface{})
	if !ok || len(vals) != 2 {
		return res, false, errUnexpectedReply
	}

	allowed, _ := vals[0].(int64)
	remaining, _ := vals[1].(int64)
	res.Remaining = int(remaining)

	return res, allowed == 1, nil
}

var _ Limiter = (*RedisSlidingWindow)(nil)
