package handler

import (
	"grocery-storefront/internal/service"
	"grocery-storefront/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

// CreateOrder places an order. Body "intent": "reserve" (default) or "confirm".
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req service.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	order, err := h.service.Create(logger.Context(c), currentStore(c), &req, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(order)
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	orderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	order, err := h.service.Get(logger.Context(c), currentStore(c), orderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// GetOrders lists the store's orders. Query params: status, limit
func (h *OrderHandler) GetOrders(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		limit = 0
	}

	orders, err := h.service.List(logger.Context(c), currentStore(c), c.Query("status"), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

// GetMyOrders lists orders for the email in the caller's token
func (h *OrderHandler) GetMyOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListMine(logger.Context(c), currentStore(c), getUserEmail(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

func (h *OrderHandler) ConfirmOrder(c *fiber.Ctx) error {
	orderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	order, err := h.service.Confirm(logger.Context(c), currentStore(c), orderID, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	orderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	result, err := h.service.Cancel(logger.Context(c), currentStore(c), orderID, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

func (h *OrderHandler) SetFulfillment(c *fiber.Ctx) error {
	orderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	var req service.FulfillmentRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	order, err := h.service.SetFulfillment(logger.Context(c), currentStore(c), orderID, &req, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}
