package hub

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"matcha/backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

// WebSocketClient implements Client over a gorilla/websocket connection.
type WebSocketClient struct {
	userID uint64
	connID string
	conn   *websocket.Conn
	hub    *Hub
	log    *slog.Logger

	send   chan models.Event
	mu     sync.RWMutex
	closed bool
}

// NewWebSocketClient wraps an upgraded connection for the given user. The
// connection id is generated here and stays stable for the session.
func NewWebSocketClient(userID uint64, conn *websocket.Conn, h *Hub, log *slog.Logger) *WebSocketClient {
	return &WebSocketClient{
		userID: userID,
		connID: uuid.New().String(),
		conn:   conn,
		hub:    h,
		log:    log,
		send:   make(chan models.Event, sendBufferSize),
	}
}

func (c *WebSocketClient) GetUserID() uint64       { return c.userID }
func (c *WebSocketClient) GetConnectionID() string { return c.connID }

// Send queues an event for the write pump without blocking.
func (c *WebSocketClient) Send(evt models.Event) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- evt:
		return true
	default:
		return false
	}
}

// Run starts the read and write pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close shuts the send channel, which stops the write pump and closes the
// socket. Idempotent: disconnect can be detected by several code paths.
func (c *WebSocketClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.hub.UnregisterCh <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read error", "conn", c.connID, "err", err)
			}
			return
		}

		var evt models.Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			c.log.Debug("skipping malformed frame", "conn", c.connID, "err", err)
			continue
		}

		c.hub.IncomingCh <- Inbound{Client: c, Event: evt}
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			raw, err := json.Marshal(evt)
			if err != nil {
				c.log.Error("failed to encode event", "conn", c.connID, "err", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
