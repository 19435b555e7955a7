package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRedisUnavailable = errors.New("redis unavailable")

const defaultKeyPrefix = "rl:"

// The window starts with the first hit; key expiry is the reset. A key that
// somehow lost its TTL gets a fresh one rather than living forever.
var hitScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if count == 1 or ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisStore keeps window counters in Redis so every replica of the
// service shares one budget per identifier.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

type RedisOption func(*RedisStore)

func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *RedisStore) {
		s.now = now
	}
}

func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		redis:  client,
		prefix: defaultKeyPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Hit(ctx context.Context, identifier string, window time.Duration) (Entry, error) {
	windowMs := window.Milliseconds()
	if windowMs < 1 {
		windowMs = 1
	}

	res, err := hitScript.Run(ctx, s.redis, []string{s.prefix + identifier}, windowMs).Int64Slice()
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(res) != 2 {
		return Entry{}, fmt.Errorf("%w: unexpected script reply %v", ErrRedisUnavailable, res)
	}

	return Entry{
		Identifier:    identifier,
		Count:         int(res[0]),
		WindowResetAt: s.now().Add(time.Duration(res[1]) * time.Millisecond),
	}, nil
}
