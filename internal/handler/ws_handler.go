package handler

import (
	"strings"

	"grocery-storefront/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// RequireUpgrade rejects plain HTTP requests on websocket routes.
func RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return c.SendStatus(fiber.StatusUpgradeRequired)
}

// StoreEvents subscribes the connection to one store's events (?store=<slug>).
func StoreEvents(hub *ws.Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		store := strings.ToLower(c.Query("store"))
		if store == "" {
			c.Close()
			return
		}
		hub.Register <- &ws.Client{Conn: c, Store: store}
		defer func() { hub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	})
}
