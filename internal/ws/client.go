package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/laserchess/relay/internal/core"
	"github.com/laserchess/relay/internal/metrics"
	"github.com/laserchess/relay/internal/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 45 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 64
)

// Client owns one websocket connection: a read loop that feeds the core and
// a write loop draining the send buffer. It implements model.Sender; sends
// are fire-and-forget and are dropped when the buffer is full or closed.
type Client struct {
	conn    *websocket.Conn
	core    *core.Core
	metrics *metrics.Metrics
	logger  *slog.Logger

	session *model.Session

	send      chan []byte
	closeOnce sync.Once
}

// NewClient wraps an upgraded connection.
func NewClient(conn *websocket.Conn, c *core.Core, m *metrics.Metrics, logger *slog.Logger) *Client {
	return &Client{
		conn:    conn,
		core:    c,
		metrics: m,
		logger:  logger,
		send:    make(chan []byte, sendBufferSize),
	}
}

// Run registers the session and pumps messages until the connection drops.
// It blocks until the read loop exits; the caller owns the goroutine.
func (c *Client) Run() {
	go c.writePump()

	// Register after the writer is running so the welcome message has
	// somewhere to go.
	c.session = c.core.Register(c)

	c.readPump()
}

// Send marshals and enqueues one outbound message. It never blocks: a full
// buffer means the client is too slow or gone, and the message is dropped.
func (c *Client) Send(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("marshal outbound message", slog.String("error", err.Error()))
		return
	}

	select {
	case c.send <- payload:
	default:
		c.metrics.MessagesDropped.Inc()
		c.logger.Warn("outbound message dropped - client buffer full",
			slog.Int64("session_id", c.sessionID()))
	}
}

func (c *Client) sessionID() int64 {
	if c.session == nil {
		return 0
	}
	return int64(c.session.ID)
}

// readPump delivers raw payloads to the core in arrival order. On any read
// error it reports the disconnect exactly once and tears the client down.
func (c *Client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read error",
					slog.Int64("session_id", c.sessionID()),
					slog.String("error", err.Error()))
			}
			return
		}
		c.core.HandleMessage(c.session, raw)
	}
}

// writePump drains the send buffer and keeps the connection alive with
// pings. Write failures end the connection; the read loop then reports the
// disconnect.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close reports the disconnect to the core and shuts the writer down.
// All sends to this client happen under the core mutex while the session is
// still registered, so once Disconnect returns no Send can race the close.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		if c.session != nil {
			c.core.Disconnect(c.session)
		}
		close(c.send)
		_ = c.conn.Close()
	})
}
