package logger

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type contextKey string

const loggerKey contextKey = "logger"

// LocalsKey is the fiber.Ctx Locals key holding the request-scoped logger.
const LocalsKey = "logger"

// FromContext retrieves the logger from the context
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return GetLogger()
	}
	logger, ok := ctx.Value(loggerKey).(*zap.Logger)
	if !ok {
		return GetLogger()
	}
	return logger
}

// WithContext adds the logger to the context
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromFiber retrieves the request logger set by the request ID middleware
func FromFiber(c *fiber.Ctx) *zap.Logger {
	logger, ok := c.Locals(LocalsKey).(*zap.Logger)
	if !ok {
		return GetLogger()
	}
	return logger
}

// Context returns a context.Context carrying the request logger, for passing to services.
func Context(c *fiber.Ctx) context.Context {
	return WithContext(c.UserContext(), FromFiber(c))
}
