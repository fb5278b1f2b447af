package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/omnimedia/server/internal/port/outbound"
)

const rateLimitKeyPrefix = "omni-media:ratelimit:"

// slidingWindowScript trims events older than the threshold, rejects when the
// window is full and otherwise records n events atomically.
//
// KEYS[1]  sorted set key
// ARGV[1]  exclusive trim bound, "(<micros>"
// ARGV[2]  now in microseconds
// ARGV[3]  limit
// ARGV[4]  expiry in milliseconds
// ARGV[5:] one member per event
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	redis.call('ZREMRANGEBYSCORE', key, '-inf', ARGV[1])
	local count = redis.call('ZCARD', key)
	local limit = tonumber(ARGV[3])
	local n = #ARGV - 4
	if count + n > limit then
		return 0
	end
	for i = 5, #ARGV do
		redis.call('ZADD', key, ARGV[2], ARGV[i])
	end
	redis.call('PEXPIRE', key, ARGV[4])
	return 1
`)

// rateLimiter implements outbound.RateLimiterPort on a redis sorted set.
type rateLimiter struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRateLimiter creates a redis-backed limiter. A nil clock means time.Now.
func NewRateLimiter(client redis.UniversalClient, now func() time.Time) outbound.RateLimiterPort {
	if now == nil {
		now = time.Now
	}
	return &rateLimiter{client: client, now: now}
}

func (r *rateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return r.AllowN(ctx, key, 1, limit, window)
}

func (r *rateLimiter) AllowN(ctx context.Context, key string, n int, limit int, window time.Duration) (bool, error) {
	if n <= 0 {
		return true, nil
	}
	now := r.now().UnixMicro()

	args := make([]any, 0, 4+n)
	args = append(args,
		trimBound(now, window),
		strconv.FormatInt(now, 10),
		limit,
		max(window.Milliseconds(), 1),
	)
	for i := 0; i < n; i++ {
		args = append(args, uuid.NewString())
	}

	res, err := slidingWindowScript.Run(ctx, r.client, []string{rateLimitKeyPrefix + key}, args...).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (r *rateLimiter) GetRemaining(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	fullKey := rateLimitKeyPrefix + key
	now := r.now().UnixMicro()

	pipe := r.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, fullKey, "-inf", trimBound(now, window))
	countCmd := pipe.ZCard(ctx, fullKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return max(limit-int(countCmd.Val()), 0), nil
}

func (r *rateLimiter) Backend() string {
	return "redis"
}

func trimBound(nowMicros int64, window time.Duration) string {
	return "(" + strconv.FormatInt(nowMicros-window.Microseconds(), 10)
}

// Compile-time check
var _ outbound.RateLimiterPort = (*rateLimiter)(nil)
