package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/cuetable/backend/internal/auth"
	"github.com/cuetable/backend/internal/config"
	"github.com/cuetable/backend/internal/game"
	"github.com/cuetable/backend/internal/metrics"
)

// TableHub is the single hub for all table sessions.
var TableHub *Hub

func init() {
	TableHub = NewHub()
	go TableHub.Run()
}

// WSMessage is the envelope for all client-to-server messages.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// PointerData carries pointer press/release coordinates in table space.
type PointerData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// HandleSessionSocket upgrades a connection for one table session. The
// caller must present the session JWT issued when the table was created.
func HandleSessionSocket(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionToken := c.Param("token")
		signed := c.Query("st")
		if sessionToken == "" || signed == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token and st required"})
			return
		}

		granted, err := auth.ValidateSessionToken(cfg.JWTSecret, signed)
		if err != nil || granted != sessionToken {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid session token"})
			return
		}

		if _, err := game.Manager.GetSession(sessionToken); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		client := &Client{
			conn:         conn,
			sessionToken: sessionToken,
			send:         make(chan []byte, 256),
			limiter: rate.NewLimiter(
				rate.Limit(cfg.InputEventsPerSecond), cfg.InputBurst),
		}

		TableHub.register <- client

		go client.writePump()
		go client.readPump()

		// First frame so a new client sees the table immediately.
		if snap, err := game.Manager.Snapshot(sessionToken); err == nil {
			TableHub.BroadcastFrame(sessionToken, snap)
		}
	}
}

// readPump reads pointer events for a table session.
func (c *Client) readPump() {
	defer func() {
		TableHub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] Read error for session %s: %v", c.sessionToken, err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("invalid message format")
			continue
		}

		c.handleMessage(msg)
	}
}

// handleMessage dispatches one client message.
func (c *Client) handleMessage(msg WSMessage) {
	switch msg.Type {
	case "press", "release":
		if !c.limiter.Allow() {
			metrics.InputsDropped.Inc()
			return
		}
		var p PointerData
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			c.sendError("invalid pointer data")
			return
		}

		var err error
		if msg.Type == "press" {
			err = game.Manager.HandlePress(c.sessionToken, p.X, p.Y)
		} else {
			err = game.Manager.HandleRelease(c.sessionToken, p.X, p.Y)
		}
		if err != nil {
			c.sendError(err.Error())
		}

	case "state":
		snap, err := game.Manager.Snapshot(c.sessionToken)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		data, err := json.Marshal(map[string]interface{}{
			"type": "frame",
			"data": snap,
		})
		if err != nil {
			return
		}
		select {
		case c.send <- data:
		default:
		}

	default:
		c.sendError("unknown message type: " + msg.Type)
	}
}
