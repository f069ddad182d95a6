package ws

import (
	"encoding/json"
	"sync"

	"grocery-storefront/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// Client is a websocket subscribed to one store's events.
type Client struct {
	Conn  *websocket.Conn
	Store string
}

// Message is delivered to every client of Store.
type Message struct {
	Store string
	Data  []byte
}

// Hub fans out live order and stock events per store.
type Hub struct {
	Clients    map[*websocket.Conn]string
	Register   chan *Client
	Unregister chan *websocket.Conn
	Broadcast  chan Message
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]string),
		Register:   make(chan *Client),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan Message, 64),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mutex.Lock()
			h.Clients[client.Conn] = client.Store
			h.mutex.Unlock()
			logger.GetLogger().Debug("ws client connected", zap.String("store", client.Store))

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn, store := range h.Clients {
				if store != message.Store {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, message.Data); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Publish marshals payload and queues it for the store's clients without blocking the caller.
// A nil Hub drops events.
func (h *Hub) Publish(store string, payload interface{}) {
	if h == nil {
		return
	}
	msg, err := json.Marshal(payload)
	if err != nil {
		logger.GetLogger().Warn("ws payload not serializable", zap.Error(err))
		return
	}
	go func() {
		h.Broadcast <- Message{Store: store, Data: msg}
	}()
}

// ClientCount returns the number of connected clients for a store.
func (h *Hub) ClientCount(store string) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	n := 0
	for _, s := range h.Clients {
		if s == store {
			n++
		}
	}
	return n
}
