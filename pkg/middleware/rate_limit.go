package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiterConfig configures the per-client limiter. Clients are keyed by
// gin's ClientIP, so forwarded headers only count when the engine trusts the
// proxy that sent them (see gin.Engine.SetTrustedProxies).
// With a RedisClient the limit is a fixed window shared by all replicas
// (Limit requests per Window); without one each process keeps an in-memory
// token bucket per client (PerSecond, Burst).
type RateLimiterConfig struct {
	RedisClient *redis.Client
	Limit       int
	Window      time.Duration

	PerSecond float64
	Burst     int

	KeyPrefix string
	Extractor func(c *gin.Context) string
}

func NewRateLimiter(cfg RateLimiterConfig) gin.HandlerFunc {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "rl:"
	}
	if cfg.Extractor == nil {
		cfg.Extractor = func(c *gin.Context) string { return c.ClientIP() }
	}

	if cfg.RedisClient != nil {
		return redisLimiter(cfg)
	}
	return localLimiter(cfg)
}

func clientKey(cfg RateLimiterConfig, c *gin.Context) string {
	id := cfg.Extractor(c)
	if id == "" {
		id = "anonymous"
	}
	return cfg.KeyPrefix + id
}

// fixedWindow increments the counter and arms its expiry in one atomic step.
// A key found without a TTL is re-armed, so a counter can never outlive its window.
// Returns {count, pttl}.
var fixedWindow = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {count, redis.call("PTTL", KEYS[1])}
`)

func redisLimiter(cfg RateLimiterConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := clientKey(cfg, c)

		res, err := fixedWindow.Run(ctx, cfg.RedisClient, []string{key}, cfg.Window.Milliseconds()).Int64Slice()
		if err == nil && len(res) != 2 {
			err = fmt.Errorf("unexpected rate limit reply %v", res)
		}
		if err != nil {
			// fail open
			zap.S().Warnf("Rate limiter unavailable: %v", err)
			c.Next()
			return
		}
		count := res[0]

		reset := int((res[1] + 999) / 1000)
		if reset < 0 {
			reset = 0
		}

		if count > int64(cfg.Limit) {
			reject(c, cfg.Limit, reset)
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", cfg.Limit-int(count)))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", reset))
		c.Next()
	}
}

func localLimiter(cfg RateLimiterConfig) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)

	get := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		if lim, ok := limiters[key]; ok {
			return lim
		}
		lim := rate.NewLimiter(rate.Limit(cfg.PerSecond), cfg.Burst)
		limiters[key] = lim
		return lim
	}

	return func(c *gin.Context) {
		lim := get(clientKey(cfg, c))

		reservation := lim.Reserve()
		if !reservation.OK() {
			reject(c, cfg.Burst, 1)
			return
		}
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			reject(c, cfg.Burst, int(delay.Seconds())+1)
			return
		}

		remaining := int(lim.Tokens())
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.Burst))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Next()
	}
}

func reject(c *gin.Context, limit, retryAfter int) {
	c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
	c.Header("X-RateLimit-Remaining", "0")
	c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", retryAfter))
	c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":           "rate limit exceeded",
		"retry_after_sec": retryAfter,
	})
}
