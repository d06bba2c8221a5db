// Package ratelimit provides a fixed-window per-IP request limiter
// backed by redis. The counter lives in redis so multiple instances
// share one budget.
package ratelimit

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// New returns fiber middleware allowing up to limit requests per window
// per client IP. With no redis client or a non-positive limit it is a
// no-op. Redis failures let traffic through rather than blocking it.
func New(client *redis.Client, limit int, window time.Duration) fiber.Handler {
	if client == nil || limit <= 0 {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}
	return func(c *fiber.Ctx) error {
		key := fmt.Sprintf("ratelimit:%s", c.IP())
		n, err := client.Incr(c.Context(), key).Result()
		if err != nil {
			return c.Next()
		}
		if n == 1 {
			client.Expire(c.Context(), key, window)
		}
		if n > int64(limit) {
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return c.Next()
	}
}
