package middleware

import (
	"fmt"
	"time"

	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// CredentialRateLimiter throttles login and registration attempts per client IP.
// A non-positive max disables it.
func CredentialRateLimiter(max int) fiber.Handler {
	if max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.Error(c, fiber.StatusTooManyRequests, fiber.NewError(fiber.StatusTooManyRequests, "Too many attempts, try again later"))
		},
	})
}

// Recovery turns a handler panic into a logged 500.
func Recovery(log *utils.Logger) fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			log.Error("panic recovered", "method", c.Method(), "path", c.Path(), "panic", fmt.Sprint(e))
		},
	})
}
