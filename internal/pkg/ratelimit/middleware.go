package ratelimit

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vitrinelabs/vitrine/internal/pkg/audit"
)

// Config controls one rate-limited route group.
type Config struct {
	// Max requests per window per key. Default 100.
	Max int
	// Window length. Default 60s.
	Window time.Duration
	// Counter backend. Default is an in-memory counter.
	Counter Counter
	// KeyPrefix separates counters of different route groups.
	KeyPrefix string
}

// New builds a Fiber middleware enforcing a fixed window per
// (caller IP, method, route). Rate-limit headers are set on every response;
// exceeding the limit yields 429 with retry-after plus a security audit event.
// Counter backend failures fail open: an unreachable store must not take the
// webhook endpoint down.
func New(cfg Config) fiber.Handler {
	if cfg.Max <= 0 {
		cfg.Max = 100
	}
	if cfg.Window <= 0 {
		cfg.Window = 60 * time.Second
	}
	if cfg.Counter == nil {
		cfg.Counter = NewMemoryCounter()
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "ratelimit"
	}

	return func(c *fiber.Ctx) error {
		key := fmt.Sprintf("%s:%s:%s:%s", cfg.KeyPrefix, c.IP(), c.Method(), c.Path())

		count, reset, err := cfg.Counter.Increment(c.Context(), key, cfg.Window)
		if err != nil {
			log.Printf("ratelimit: counter error for %s: %v", key, err)
			return c.Next()
		}

		remaining := int64(cfg.Max) - count
		if remaining < 0 {
			remaining = 0
		}
		resetSecs := int64(reset.Round(time.Second).Seconds())
		if resetSecs < 1 {
			resetSecs = 1
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(resetSecs, 10))

		if count > int64(cfg.Max) {
			c.Set("Retry-After", strconv.FormatInt(resetSecs, 10))
			audit.Log(audit.ActionRateLimited, c.IP(), c.IP(), map[string]interface{}{
				"method": c.Method(),
				"path":   c.Path(),
				"count":  count,
				"limit":  cfg.Max,
			})
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate_limited",
			})
		}

		return c.Next()
	}
}
