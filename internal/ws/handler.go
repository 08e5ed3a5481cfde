// Package ws is the transport adapter: it owns the websocket endpoint and
// surfaces connect, message and disconnect events to the core without
// interpreting payloads.
package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/laserchess/relay/internal/core"
	"github.com/laserchess/relay/internal/metrics"
)

// Handler upgrades HTTP requests to websocket connections and hands them to
// a Client.
type Handler struct {
	core     *core.Core
	metrics  *metrics.Metrics
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates the websocket endpoint handler.
func NewHandler(c *core.Core, m *metrics.Metrics, logger *slog.Logger) *Handler {
	return &Handler{
		core:    c,
		metrics: m,
		logger:  logger.With(slog.String("component", "ws")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Native game clients connect from arbitrary origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and runs the client until it drops.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			slog.String("remote", r.RemoteAddr),
			slog.String("error", err.Error()))
		return
	}

	client := NewClient(conn, h.core, h.metrics, h.logger)
	go client.Run()
}
