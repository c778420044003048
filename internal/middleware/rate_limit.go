package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/edumate-go-api/internal/utils"
)

// RateLimit limits requests per authenticated user, or per client IP for anonymous callers.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 60
	}
	if window <= 0 {
		window = time.Minute
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return fmt.Sprintf("%s:%s", identifier, rateLimitSubject(c))
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.SendError(c, fiber.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}

func rateLimitSubject(c *fiber.Ctx) string {
	switch v := c.Locals("user_id").(type) {
	case uint:
		if v > 0 {
			return fmt.Sprintf("user:%d", v)
		}
	case string:
		if v != "" {
			return "user:" + v
		}
	}
	return "ip:" + c.IP()
}
