// Package server exposes the panel core over a local HTTP listener: commands
// come in through the WebSocket endpoint or POST /command, events go out
// through the WebSocket and SSE endpoints.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tmaxmax/go-sse"

	"github.com/calegann/chatpanel/internal/protocol"
)

const errLoggerKey = "err"

const (
	// sendQueueSize is the per-client event buffer; events beyond it are
	// dropped rather than blocking the stream for everyone else.
	sendQueueSize = 100

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	// maxCommandBytes bounds a single incoming command frame.
	maxCommandBytes = 1 << 20
)

// CommandHandler consumes decoded panel commands.
type CommandHandler interface {
	Handle(cmd protocol.Command)
}

// Hub fans panel events out to every connected client. It implements the
// event publisher used by the router and relay, and serves both outbound
// transports: WebSocket for the panel shell and SSE for plain HTTP consumers.
type Hub struct {
	logger *slog.Logger

	sseSrv   *sse.Server
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a new Hub with no connected clients.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With(slog.String("module", "hub")),
		sseSrv: &sse.Server{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Panel shells connect from webview origins that never match
			// the local host, so the default same-origin check would
			// reject them. The listener binds to localhost only.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*wsClient]struct{}),
	}
}

// Publish broadcasts the event to every connected client on both transports.
// Slow WebSocket clients are skipped once their queue fills; the SSE server
// does its own buffering.
func (h *Hub) Publish(evt protocol.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("Failed to marshal event",
			slog.String(errLoggerKey, err.Error()), slog.String("event", evt.Kind()))
		return
	}

	msg := &sse.Message{Type: sse.Type(evt.Kind())}
	msg.AppendData(string(data))
	if err := h.sseSrv.Publish(msg); err != nil {
		h.logger.Error("Failed to publish sse event",
			slog.String(errLoggerKey, err.Error()), slog.String("event", evt.Kind()))
	}

	h.mu.RLock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			h.logger.Warn("Dropping event for slow websocket client",
				slog.String("event", evt.Kind()))
			metricEventsDropped.Inc()
		}
	}
	h.mu.RUnlock()

	metricEventsPublished.WithLabelValues(evt.Kind()).Inc()
}

// HandleWS returns the handler for the WebSocket endpoint. Frames received
// from the client are decoded as commands and handed to commands; events
// published on the hub are pushed to the socket until it closes.
func (h *Hub) HandleWS(commands CommandHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Error("Failed to upgrade websocket connection",
				slog.String(errLoggerKey, err.Error()))
			return
		}

		client := &wsClient{
			conn: conn,
			send: make(chan []byte, sendQueueSize),
		}

		h.mu.Lock()
		h.clients[client] = struct{}{}
		h.mu.Unlock()

		metricWSClients.Inc()
		h.logger.Info("Websocket client connected", slog.String("remoteAddr", r.RemoteAddr))

		go client.writePump()
		go h.readPump(client, commands)
	}
}

// SSEHandler returns the handler for the SSE endpoint.
func (h *Hub) SSEHandler() http.Handler {
	return h.sseSrv
}

// ActiveClients returns the number of connected WebSocket clients.
func (h *Hub) ActiveClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown disconnects every client on both transports. SSE clients receive
// a final close event so they know not to reconnect.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()

	e := &sse.Message{Type: sse.Type("close")}
	e.AppendData("bye")
	_ = h.sseSrv.Publish(e)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return h.sseSrv.Shutdown(ctx)
}

func (h *Hub) readPump(client *wsClient, commands CommandHandler) {
	defer func() {
		h.removeClient(client)
		metricWSClients.Dec()
	}()

	client.conn.SetReadLimit(maxCommandBytes)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Error("Websocket read error", slog.String(errLoggerKey, err.Error()))
			}
			return
		}

		var cmd protocol.Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			h.logger.Warn("Discarding malformed command frame",
				slog.String(errLoggerKey, err.Error()))
			h.Publish(protocol.NewErrorEvent("", "invalid message format"))
			continue
		}

		commands.Handle(cmd)
	}
}

func (h *Hub) removeClient(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.logger.Info("Websocket client disconnected")
	}
}

// writePump is the only writer on the connection. It exits when the send
// channel closes or a write fails, closing the connection either way so the
// read side unblocks.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
