package websocket

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"event-wall/internal/models"
	"event-wall/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// CommandHandler processes one authorized command from a client.
type CommandHandler func(c *Client, cmd protocol.Command)

// Client represents a WebSocket connection
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan *protocol.Event
	Role models.Role
	ID   string

	handle CommandHandler
	mu     sync.Mutex
	closed bool
}

// NewClient wires a connection to the hub. handle may be nil for receive-only
// clients.
func NewClient(hub *Hub, conn *websocket.Conn, role models.Role, id string, buffer int, handle CommandHandler) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{
		Hub:    hub,
		Conn:   conn,
		Send:   make(chan *protocol.Event, buffer),
		Role:   role,
		ID:     id,
		handle: handle,
	}
}

// Deliver queues ev without blocking. It reports false when the queue is full
// or the client is closed.
func (c *Client) Deliver(ev *protocol.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- ev:
		return true
	default:
		return false
	}
}

// Close stops the write pump. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// ReadPump pumps commands from the WebSocket connection to the handler. sub
// is what was registered with the hub for this connection; it is
// unsubscribed when the connection ends.
func (c *Client) ReadPump(sub Subscriber) {
	defer func() {
		c.Hub.Unsubscribe(c.Role, sub)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			// Only log if it's not a normal close (code 1000 from navigation)
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("websocket read failed", "error", err, "client", c.ID, "role", c.Role)
			}
			break
		}

		cmd, err := protocol.DecodeCommand(message)
		if err == nil {
			err = cmd.Authorize(c.Role)
		}
		if err != nil {
			if errors.Is(err, models.ErrUnknownKind) || errors.Is(err, models.ErrForbidden) {
				slog.Warn("rejected command", "error", err, "client", c.ID, "role", c.Role)
			}
			c.Deliver(protocol.ErrorEvent(err))
			continue
		}
		if c.handle != nil {
			c.handle(c, cmd)
		}
	}
}

// WritePump pumps events from the hub to the WebSocket connection. Several
// queued events may share one frame, separated by newlines.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(mustMarshal(ev))

			// Add queued events to the current WebSocket message
			n := len(c.Send)
			for i := 0; i < n; i++ {
				next, ok := <-c.Send
				if !ok {
					break
				}
				w.Write([]byte{'\n'})
				w.Write(mustMarshal(next))
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal event", "error", err)
		return []byte("{}")
	}
	return b
}
