package ratelimit

import (
	"github.com/gofiber/fiber/v2"
)

// Middleware guards a route with the limiter. Windows are keyed by client
// IP and route name so one noisy widget cannot starve another endpoint.
func Middleware(l *Limiter, routeName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.Allow(c.IP() + ":" + routeName) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limited",
				"message": "Too many requests, slow down",
			})
		}
		return c.Next()
	}
}
