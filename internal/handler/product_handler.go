package handler

import (
	"grocery-storefront/internal/service"
	"grocery-storefront/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	service service.CatalogService
}

func NewProductHandler(s service.CatalogService) *ProductHandler {
	return &ProductHandler{service: s}
}

func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.ListProducts(logger.Context(c), currentStore(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	product, err := h.service.GetProduct(logger.Context(c), currentStore(c), productID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	product, err := h.service.CreateProduct(logger.Context(c), currentStore(c), &req, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Product created", "data": product})
}

// UpdateProduct patches the store override. Omitted fields are kept, null clears them.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var req service.UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	updated, err := h.service.UpdateProduct(logger.Context(c), currentStore(c), productID, &req, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

func (h *ProductHandler) SetStock(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var req service.SetStockRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	updated, err := h.service.SetStock(logger.Context(c), currentStore(c), productID, &req, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock updated", "data": updated})
}

func (h *ProductHandler) BulkInventory(c *fiber.Ctx) error {
	var req service.BulkInventoryRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	n, err := h.service.BulkSetInventory(logger.Context(c), currentStore(c), &req, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Inventory updated", "updated": n})
}

func (h *ProductHandler) SetActive(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}
	if req.IsActive == nil {
		return c.Status(400).JSON(fiber.Map{"error": "is_active is required", "field": "is_active"})
	}

	updated, err := h.service.SetActive(logger.Context(c), currentStore(c), productID, *req.IsActive, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

func (h *ProductHandler) MakeGlobal(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	product, err := h.service.MakeGlobal(logger.Context(c), currentStore(c), productID, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product added to the global catalog", "data": product})
}

// Enrich looks the barcode up in the product-data service. A failed lookup is a 502
// and leaves the product unchanged.
func (h *ProductHandler) Enrich(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var req service.EnrichRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badJSON(c)
		}
	}

	product, err := h.service.Enrich(logger.Context(c), currentStore(c), productID, &req, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product enriched", "data": product})
}
