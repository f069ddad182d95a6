package middleware

import (
	"strings"

	"grocery-storefront/pkg/jwt"
	"grocery-storefront/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminTokenHeader carries the plain admin token checked by RequireAdminToken.
const AdminTokenHeader = "x-admin-token"

// RequireAuth validates the auth provider's bearer token and sets user info in context
func RequireAuth(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get Authorization header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		claims, err := jwt.ValidateToken(secret, parts[1])
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		// Set user info in context for downstream handlers
		c.Locals("user_id", claims.Subject)
		c.Locals("user_email", strings.ToLower(claims.Email))
		c.Locals("user_role", claims.Role)

		return c.Next()
	}
}

// RequireRole checks that the authenticated user has one of the given roles
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("user_role").(string)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No role found"})
		}

		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}

		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires one of " + strings.Join(roles, ", ") + " roles",
		})
	}
}

// RequireAdminToken compares the x-admin-token header against a bcrypt hash.
// With no hash configured every request is refused.
func RequireAdminToken(hash string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if hash == "" {
			logger.FromFiber(c).Warn("admin token required but ADMIN_TOKEN_HASH is not set")
			return c.Status(403).JSON(fiber.Map{"error": "Admin token is not configured"})
		}
		token := c.Get(AdminTokenHeader)
		if token == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing admin token"})
		}
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
			logger.FromFiber(c).Warn("admin token rejected", zap.String("path", c.Path()))
			return c.Status(403).JSON(fiber.Map{"error": "Invalid admin token"})
		}
		return c.Next()
	}
}
