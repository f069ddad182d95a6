package middleware

import (
	"grocery-storefront/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-ID"

// RequestID tags every request with an id (reusing an incoming one) and stores a
// child logger carrying it for handlers and services.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Header and path values are only valid during the request
		id := utils.CopyString(c.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Locals("request_id", id)
		c.Locals(logger.LocalsKey, logger.GetLogger().With(
			zap.String("request_id", id),
			zap.String("method", c.Method()),
			zap.String("path", utils.CopyString(c.Path())),
		))
		return c.Next()
	}
}
