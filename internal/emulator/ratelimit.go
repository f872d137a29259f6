package emulator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SignInRateLimiter throttles password sign-in attempts per account.
type SignInRateLimiter interface {
	Allow(key string) bool
}

type memorySignInLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	counts map[string]windowCount
}

type windowCount struct {
	count   int
	resetAt time.Time
}

// NewSignInRateLimiter returns an in-process limiter allowing max attempts
// per key per window.
func NewSignInRateLimiter(window time.Duration, max int) SignInRateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &memorySignInLimiter{window: window, max: max, counts: map[string]windowCount{}}
}

func (l *memorySignInLimiter) Allow(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if normalized == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, ok := l.counts[normalized]
	if !ok || now.After(entry.resetAt) {
		l.counts[normalized] = windowCount{count: 1, resetAt: now.Add(l.window)}
		return true
	}
	entry.count++
	l.counts[normalized] = entry
	return entry.count <= l.max
}

const redisSignInAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisSignInLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

// NewRedisSignInRateLimiter returns a redis-backed limiter. Redis errors
// fail open so an unavailable redis never locks every account out.
func NewRedisSignInRateLimiter(client *redis.Client, window time.Duration, max int) SignInRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisSignInLimiter{client: client, window: window, max: max, prefix: "signin:rl:"}
}

func (l *redisSignInLimiter) Allow(key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	normalized := strings.ToLower(strings.TrimSpace(key))
	if normalized == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	count, err := l.client.Eval(ctx, redisSignInAllowScript, []string{l.prefix + normalized}, seconds).Int()
	if err != nil {
		return true
	}
	return count <= l.max
}
