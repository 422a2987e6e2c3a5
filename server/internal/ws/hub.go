package ws

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/consolerelay/consolerelay/server/internal/metrics"
	"github.com/consolerelay/consolerelay/server/internal/registry"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxReadSize bounds inbound frames; clients have nothing to say.
	maxReadSize = 512
)

var (
	errClientClosed   = errors.New("ws: client closed")
	errSendBufferFull = errors.New("ws: send buffer full")
	errHubClosed      = errors.New("ws: hub closed")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub accepts WebSocket subscribers into a registry.
type Hub struct {
	reg     *registry.Registry
	metrics *metrics.Metrics
	sendBuf int
	join    func(registry.Conn) error

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a Hub that registers connections in reg. sendBuf is the
// per-connection queue depth; m may be nil.
func New(reg *registry.Registry, m *metrics.Metrics, sendBuf int) *Hub {
	if sendBuf <= 0 {
		sendBuf = 1
	}
	return &Hub{reg: reg, metrics: m, sendBuf: sendBuf}
}

// WithJoin replaces the plain registry add with fn, which must add the
// connection to the hub's registry. broadcast.Dispatcher.Join uses it to
// replay the last build to new connections. It returns h for chaining.
func (h *Hub) WithJoin(fn func(registry.Conn) error) *Hub {
	h.join = fn
	return h
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		slog.Debug("ws: upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	c := &client{
		id:     uuid.NewString(),
		remote: r.RemoteAddr,
		conn:   conn,
		send:   make(chan []byte, h.sendBuf),
	}
	if err := h.register(c); err != nil {
		slog.Debug("ws: connection refused", "remote", c.remote, "err", err)
		conn.WriteMessage(websocket.CloseMessage, //nolint:errcheck
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
		conn.Close()
		return
	}
	defer h.unregister(c)

	go func() {
		defer h.wg.Done()
		c.writePump()
	}()
	c.readPump() // blocks until connection closes
}

// Count returns the number of registered clients.
func (h *Hub) Count() int {
	return h.reg.Len()
}

// Close closes every client connection this hub accepted and waits for their
// write pumps to finish. Connections arriving afterwards are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	for c := range h.reg.All() {
		if cl, ok := c.(*client); ok {
			cl.close()
		}
	}
	h.wg.Wait()
}

// register adds c and counts its write pump. Both happen under h.mu so a
// concurrent Close either refuses c or finds it in the registry.
func (h *Hub) register(c *client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errHubClosed
	}
	h.wg.Add(1)

	if h.join != nil {
		if err := h.join(c); err != nil {
			slog.Warn("ws: replay failed", "conn", c.id, "err", err)
		}
	} else {
		h.reg.Add(c)
	}
	h.metrics.ConnectionOpened()
	slog.Info("ws: client connected", "conn", c.id, "remote", c.remote, "clients", h.reg.Len())
	return nil
}

func (h *Hub) unregister(c *client) {
	c.close()
	if !h.reg.Remove(c) {
		return
	}
	h.metrics.ConnectionClosed()
	slog.Info("ws: client disconnected", "conn", c.id, "clients", h.reg.Len())
}
