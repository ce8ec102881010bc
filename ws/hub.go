package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"
)

// Hub tracks open notification sockets per user id. It only pushes
// unread badge counts; notification payloads are fetched by polling.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*websocket.Conn]struct{}
}

var H = Hub{
	clients: make(map[uint]map[*websocket.Conn]struct{}),
}

type badgeUpdate struct {
	Type        string `json:"type"`
	UnreadCount int64  `json:"unread_count"`
}

func (h *Hub) register(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[userID]; !ok {
		h.clients[userID] = make(map[*websocket.Conn]struct{})
	}
	h.clients[userID][conn] = struct{}{}
}

func (h *Hub) unregister(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.clients[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.clients, userID)
		}
	}
}

// SendBadgeUpdate pushes the unread count to every open socket of the
// user. Slow or broken sockets are skipped; delivery is best-effort.
func SendBadgeUpdate(userID uint, unreadCount int64) {
	data, err := json.Marshal(badgeUpdate{Type: "badge", UnreadCount: unreadCount})
	if err != nil {
		log.Printf("ws: failed to marshal badge update: %v", err)
		return
	}

	H.mu.RLock()
	defer H.mu.RUnlock()
	for conn := range H.clients[userID] {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("ws: failed to push badge to user %d: %v", userID, err)
		}
	}
}

// HandleNotificationSocket keeps a badge socket open for the user; the
// connection is read-only from the client's perspective, reads only
// serve to detect the close.
func HandleNotificationSocket(userID uint) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		H.register(userID, c)
		defer func() {
			H.unregister(userID, c)
			c.Close()
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}
}
