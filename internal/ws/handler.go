package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/cuetable/backend/internal/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is enforced by the CORS middleware layer
	},
}

// Client represents a connected WebSocket spectator/controller for one
// table session.
type Client struct {
	conn         *websocket.Conn
	sessionToken string
	send         chan []byte
	limiter      *rate.Limiter
}

// Hub maintains the set of active clients grouped by session.
type Hub struct {
	rooms      map[string]map[*Client]bool // session token -> clients
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run processes client registrations. Call in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, exists := h.rooms[client.sessionToken]; !exists {
				h.rooms[client.sessionToken] = make(map[*Client]bool)
			}
			h.rooms[client.sessionToken][client] = true
			h.mu.Unlock()
			log.Printf("[WS] Client connected to session %s", client.sessionToken)

		case client := <-h.unregister:
			h.mu.Lock()
			if room, exists := h.rooms[client.sessionToken]; exists {
				if room[client] {
					delete(room, client)
					close(client.send)
					if len(room) == 0 {
						delete(h.rooms, client.sessionToken)
					}
				}
			}
			h.mu.Unlock()
			log.Printf("[WS] Client disconnected from session %s", client.sessionToken)
		}
	}
}

// BroadcastFrame sends a simulation frame to every client watching the
// session. It implements game.FrameSink.
func (h *Hub) BroadcastFrame(sessionToken string, snap game.TableSnapshot) {
	h.mu.RLock()
	room, exists := h.rooms[sessionToken]
	if !exists || len(room) == 0 {
		h.mu.RUnlock()
		return
	}

	data, err := json.Marshal(map[string]interface{}{
		"type": "frame",
		"data": snap,
	})
	if err != nil {
		h.mu.RUnlock()
		log.Printf("[WS] Error marshaling frame: %v", err)
		return
	}

	for client := range room {
		select {
		case client.send <- data:
		default:
			// Client's buffer is full; it will catch up on the next frame.
		}
	}
	h.mu.RUnlock()
}

// sendError sends an error message to the client, dropping it if the
// client's buffer is full.
func (c *Client) sendError(message string) {
	data, _ := json.Marshal(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
	select {
	case c.send <- data:
	default:
	}
}

// writePump writes queued messages to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Channel closed — best-effort close frame.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] Write error for session %s: %v", c.sessionToken, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] Ping error for session %s: %v", c.sessionToken, err)
				return
			}
		}
	}
}
