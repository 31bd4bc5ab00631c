package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"file-vault-api/internal/application/ports"
)

const keyPrefix = "rate_limit:owner:"

// fixedWindowScript returns {count, ttl_ms} after counting this call.
var fixedWindowScript = redis.NewScript(`
	local current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl < 0 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
		ttl = tonumber(ARGV[1])
	end
	return {current, ttl}
`)

// Redis shares windows between all instances pointing at one server.
type Redis struct {
	client redis.Scripter
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedis(client redis.Scripter, limit int, window time.Duration) *Redis {
	return &Redis{client: client, limit: limit, window: window, now: time.Now}
}

var _ ports.RateLimiter = (*Redis)(nil)

func (r *Redis) Allow(ctx context.Context, key string) (ports.RateDecision, error) {
	res, err := fixedWindowScript.Run(ctx, r.client, []string{keyPrefix + key}, r.window.Milliseconds()).Int64Slice()
	if err != nil {
		return ports.RateDecision{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 2 {
		return ports.RateDecision{}, fmt.Errorf("invalid rate limit result: %v", res)
	}

	return r.decide(res[0], time.Duration(res[1])*time.Millisecond), nil
}

func (r *Redis) decide(count int64, ttl time.Duration) ports.RateDecision {
	d := ports.RateDecision{
		Limit:   r.limit,
		ResetAt: r.now().Add(ttl),
	}
	if count > int64(r.limit) {
		d.RetryAfter = ttl
		return d
	}

	d.Allowed = true
	d.Remaining = r.limit - int(count)
	return d
}
