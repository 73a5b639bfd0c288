package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "reelfolio:ratelimit:"

// recordFailureScript creates the counter with the window as TTL, or bumps
// it while below the maximum. Returns {count, pttl, counted}; counted is 0
// when the counter was already saturated and left alone.
var recordFailureScript = redis.NewScript(`
local count = redis.call('GET', KEYS[1])
if not count then
	redis.call('SET', KEYS[1], 1, 'PX', ARGV[2])
	return {1, tonumber(ARGV[2]), 1}
end
count = tonumber(count)
local ttl = redis.call('PTTL', KEYS[1])
if count >= tonumber(ARGV[1]) then
	return {count, ttl, 0}
end
count = redis.call('INCR', KEYS[1])
return {count, ttl, 1}
`)

// RedisRateLimiter keeps the same fixed-window counters as RateLimiter in
// Redis, so several processes share one view of failed logins. Redis
// errors are logged and treated as an empty window.
type RedisRateLimiter struct {
	client      redis.UniversalClient
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

var _ Limiter = (*RedisRateLimiter)(nil)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func NewRedisRateLimiter(client redis.UniversalClient, maxAttempts int, window time.Duration) *RedisRateLimiter {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisRateLimiter{
		client:      client,
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

func (rl *RedisRateLimiter) Limit() int {
	return rl.maxAttempts
}

func (rl *RedisRateLimiter) Check(ctx context.Context, id string) Status {
	now := rl.now()
	key := redisKeyPrefix + id

	pipe := rl.client.Pipeline()
	getCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.PTTL(ctx, key)
	_, err := pipe.Exec(ctx)

	if errors.Is(err, redis.Nil) {
		return rl.fresh(now)
	}
	if err != nil {
		slog.Error("rate limit check failed", "error", err, "id", id)
		return rl.fresh(now)
	}

	count, err := strconv.Atoi(getCmd.Val())
	if err != nil {
		slog.Error("rate limit counter is not a number", "error", err, "id", id)
		return rl.fresh(now)
	}
	ttl := ttlCmd.Val()
	if ttl <= 0 {
		return rl.fresh(now)
	}
	return rl.status(count, now.Add(ttl))
}

func (rl *RedisRateLimiter) RecordFailure(ctx context.Context, id string) Status {
	now := rl.now()
	key := redisKeyPrefix + id

	res, err := recordFailureScript.Run(ctx, rl.client, []string{key}, rl.maxAttempts, rl.window.Milliseconds()).Int64Slice()
	if err != nil || len(res) != 3 {
		slog.Error("rate limit increment failed", "error", err, "id", id)
		return rl.fresh(now)
	}

	count, ttl, counted := int(res[0]), time.Duration(res[1])*time.Millisecond, res[2] == 1
	resetTime := now.Add(ttl)
	if !counted {
		return Status{Allowed: false, Remaining: 0, ResetTime: resetTime}
	}
	remaining := rl.maxAttempts - count
	if remaining < 0 {
		remaining = 0
	}
	return Status{Allowed: true, Remaining: remaining, ResetTime: resetTime}
}

func (rl *RedisRateLimiter) Reset(ctx context.Context, id string) {
	if err := rl.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		slog.Error("rate limit reset failed", "error", err, "id", id)
	}
}

func (rl *RedisRateLimiter) fresh(now time.Time) Status {
	return Status{Allowed: true, Remaining: rl.maxAttempts, ResetTime: now.Add(rl.window)}
}

func (rl *RedisRateLimiter) status(count int, resetTime time.Time) Status {
	if count >= rl.maxAttempts {
		return Status{Allowed: false, Remaining: 0, ResetTime: resetTime}
	}
	return Status{Allowed: true, Remaining: rl.maxAttempts - count, ResetTime: resetTime}
}
