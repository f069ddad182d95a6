package middleware

import (
	"errors"
	"net"
	"strings"

	"grocery-storefront/internal/model"
	"grocery-storefront/internal/service"
	"grocery-storefront/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	// TenantHeader names the store a request is for.
	TenantHeader = "x-tenant-id"

	storeLocalsKey = "store"
)

// TenantFromHost extracts a store slug from the Host subdomain, e.g.
// "green-mart.localhost:3001" -> "green-mart". Bare base domains and IPs yield "".
func TenantFromHost(host string, baseDomains []string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" || net.ParseIP(host) != nil || lo.Contains(baseDomains, host) {
		return ""
	}
	for _, base := range baseDomains {
		if sub, ok := strings.CutSuffix(host, "."+base); ok {
			labels := strings.Split(sub, ".")
			return labels[len(labels)-1]
		}
	}
	return ""
}

// ResolveTenant loads the store named by the x-tenant-id header (or the Host
// subdomain) into Locals. Missing tenant is 400, unknown tenant is 404.
func ResolveTenant(stores service.StoreService, baseDomains []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := strings.TrimSpace(c.Get(TenantHeader))
		if slug == "" {
			slug = TenantFromHost(c.Hostname(), baseDomains)
		}
		if slug == "" {
			return c.Status(400).JSON(fiber.Map{"error": "Missing " + TenantHeader})
		}

		store, err := stores.Resolve(logger.Context(c), slug)
		switch {
		case errors.Is(err, service.ErrValidation):
			return c.Status(400).JSON(fiber.Map{"error": "Missing " + TenantHeader})
		case errors.Is(err, service.ErrNotFound):
			return c.Status(404).JSON(fiber.Map{"error": "Store not found for tenant: " + slug})
		case err != nil:
			logger.FromFiber(c).Error("tenant lookup failed", zap.String("tenant", slug), zap.Error(err))
			return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
		}

		c.Locals(storeLocalsKey, store)
		return c.Next()
	}
}

// Store returns the store resolved by ResolveTenant, nil outside tenant routes.
func Store(c *fiber.Ctx) *model.Store {
	store, _ := c.Locals(storeLocalsKey).(*model.Store)
	return store
}
