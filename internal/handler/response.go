package handler

import (
	"errors"

	"grocery-storefront/internal/middleware"
	"grocery-storefront/internal/model"
	"grocery-storefront/internal/service"
	"grocery-storefront/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// respondError maps service error kinds to HTTP status codes.
func respondError(c *fiber.Ctx, err error) error {
	var fieldErr *service.FieldError
	if errors.As(err, &fieldErr) {
		return c.Status(400).JSON(fiber.Map{"error": fieldErr.Message, "field": fieldErr.Field})
	}

	var stockErr *service.InsufficientStockError
	if errors.As(err, &stockErr) {
		return c.Status(409).JSON(fiber.Map{
			"error": "Insufficient stock",
			"item": fiber.Map{
				"index":      stockErr.Index,
				"product_id": stockErr.ProductID,
				"requested":  stockErr.Requested,
				"available":  stockErr.Available,
			},
		})
	}

	switch {
	case errors.Is(err, service.ErrValidation):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrUpstream):
		return c.Status(502).JSON(fiber.Map{"error": err.Error()})
	}

	logger.FromFiber(c).Error("request failed", zap.Error(err))
	return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
}

// Helper untuk ambil User Info dari JWT Context (set by auth middleware)
func getUserID(c *fiber.Ctx) string {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return "system"
	}
	return userID
}

func getUserEmail(c *fiber.Ctx) string {
	userEmail, _ := c.Locals("user_email").(string)
	return userEmail
}

// Helper untuk parse UUID dari string
func parseUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

func currentStore(c *fiber.Ctx) *model.Store {
	return middleware.Store(c)
}

func badJSON(c *fiber.Ctx) error {
	return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
}
