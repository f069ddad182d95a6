package handler

import (
	"grocery-storefront/internal/service"
	"grocery-storefront/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

type StoreHandler struct {
	service service.StoreService
}

func NewStoreHandler(s service.StoreService) *StoreHandler {
	return &StoreHandler{service: s}
}

// GetStore returns the tenant's public summary
func (h *StoreHandler) GetStore(c *fiber.Ctx) error {
	return c.JSON(currentStore(c).ToSummary())
}

func (h *StoreHandler) ListStores(c *fiber.Ctx) error {
	stores, err := h.service.List(logger.Context(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stores)
}

// UpsertStore creates or updates a store by slug and onboards it
func (h *StoreHandler) UpsertStore(c *fiber.Ctx) error {
	var req service.UpsertStoreRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	store, result, err := h.service.Upsert(logger.Context(c), &req, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	status := fiber.StatusOK
	if result.Created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"data": store, "onboarding": result})
}

func (h *StoreHandler) UpdateStore(c *fiber.Ctx) error {
	var req service.UpdateStoreRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	store, err := h.service.Update(logger.Context(c), c.Params("slug"), &req, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Store updated", "data": store})
}

// DeleteStore removes the store and everything it owns
func (h *StoreHandler) DeleteStore(c *fiber.Ctx) error {
	if err := h.service.Delete(logger.Context(c), c.Params("slug")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Store deleted"})
}
