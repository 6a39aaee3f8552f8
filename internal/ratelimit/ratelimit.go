package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// bucketScript refills and optionally takes one token in a single atomic
// step. It returns {allowed, remaining}. Timestamps are in milliseconds and
// refill progress below one token is carried over.
var bucketScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])
	local cost = tonumber(ARGV[5])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local tokens_to_add = math.floor(((now - last_refill) / window) * refill_rate)
	if tokens_to_add > 0 then
		tokens = tokens + tokens_to_add
		last_refill = last_refill + math.floor(tokens_to_add * window / refill_rate)
		if tokens >= capacity then
			tokens = capacity
			last_refill = now
		end
	end

	if cost == 0 then
		return {1, tokens}
	end

	local allowed = 0
	if tokens >= cost then
		tokens = tokens - cost
		allowed = 1
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill', last_refill)
	redis.call('PEXPIRE', key, window * 2)
	return {allowed, tokens}
`)

// Result is the outcome of a Take.
type Result struct {
	Allowed   bool
	Remaining int64
	Limit     int64
}

// TokenBucket is a Redis backed token bucket shared by every replica.
type TokenBucket struct {
	redis    *redis.Client
	capacity int64         // Maximum number of tokens
	refill   int64         // Tokens added per window
	window   time.Duration // Refill window
	now      func() time.Time
}

// NewTokenBucket creates a bucket holding capacity tokens that refills
// refillPerMinute tokens each minute.
func NewTokenBucket(redisClient *redis.Client, capacity, refillPerMinute int64) *TokenBucket {
	return &TokenBucket{
		redis:    redisClient,
		capacity: capacity,
		refill:   refillPerMinute,
		window:   time.Minute,
		now:      time.Now,
	}
}

func key(subject, action string) string {
	return fmt.Sprintf("rate_limit:%s:%s", action, subject)
}

// Take consumes one token for subject performing action.
func (tb *TokenBucket) Take(ctx context.Context, subject, action string) (Result, error) {
	allowed, remaining, err := tb.run(ctx, subject, action, 1)
	if err != nil {
		return Result{}, fmt.Errorf("rate limit check failed: %w", err)
	}
	return Result{Allowed: allowed, Remaining: remaining, Limit: tb.capacity}, nil
}

// GetRemaining returns the tokens left without consuming one.
func (tb *TokenBucket) GetRemaining(ctx context.Context, subject, action string) (int64, error) {
	_, remaining, err := tb.run(ctx, subject, action, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to get remaining tokens: %w", err)
	}
	return remaining, nil
}

func (tb *TokenBucket) run(ctx context.Context, subject, action string, cost int64) (bool, int64, error) {
	result, err := bucketScript.Run(ctx, tb.redis, []string{key(subject, action)},
		tb.capacity, tb.refill, tb.window.Milliseconds(), tb.now().UnixMilli(), cost).Result()
	if err != nil {
		return false, 0, err
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, fmt.Errorf("unexpected result from rate limit script: %v", result)
	}
	allowed, ok1 := values[0].(int64)
	remaining, ok2 := values[1].(int64)
	if !ok1 || !ok2 {
		return false, 0, fmt.Errorf("unexpected result from rate limit script: %v", result)
	}
	return allowed == 1, remaining, nil
}
