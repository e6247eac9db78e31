// Package stream fans dashboard envelopes out to WebSocket clients.
package stream

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/speedwagon-io/stepsmon/internal/lib/logger/sl"
	"github.com/speedwagon-io/stepsmon/internal/metrics"
	"github.com/speedwagon-io/stepsmon/internal/model"
)

const (
	clientBufferSize    = 64
	defaultWriteTimeout = 5 * time.Second
)

type client struct {
	id     string
	frames chan []byte
	done   chan struct{}
	once   sync.Once
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

// Hub keeps one buffered channel per client. Publish never blocks: a client
// whose channel is full loses the frame.
type Hub struct {
	log          *slog.Logger
	metrics      *metrics.Metrics
	writeTimeout time.Duration
	origins      []string
	// Greeting, when set, supplies the frames sent right after a client connects.
	Greeting func() []*model.Envelope

	mu      sync.RWMutex
	clients map[string]*client
	closed  bool
}

// NewHub builds a hub that accepts same-origin browsers plus any Origin host
// matching originPatterns. Clients that send no Origin are always accepted.
func NewHub(log *slog.Logger, m *metrics.Metrics, originPatterns []string) *Hub {
	return &Hub{
		log:          log,
		metrics:      m,
		origins:      originPatterns,
		writeTimeout: defaultWriteTimeout,
		clients:      make(map[string]*client),
	}
}

func (h *Hub) Publish(env *model.Envelope) {
	data, err := env.ToJSON()
	if err != nil {
		h.log.Error("failed to encode envelope", slog.String("type", string(env.Type)), sl.Err(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		select {
		case c.frames <- data:
		default:
			h.metrics.StreamDropped.Inc()
			h.log.Debug("dropping frame for slow client", slog.String("client_id", c.id))
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams frames until the peer goes
// away, the request context ends or the hub is closed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Server read/write timeouts would otherwise cut long-lived streams.
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		h.log.Warn("websocket accept failed", slog.String("origin", r.Header.Get("Origin")), sl.Err(err))
		return
	}
	defer conn.Close(websocket.StatusGoingAway, "server shutting down")

	c := &client{
		id:     uuid.New().String(),
		frames: make(chan []byte, clientBufferSize),
		done:   make(chan struct{}),
	}
	if !h.register(c) {
		conn.Close(websocket.StatusTryAgainLater, "hub closed")
		return
	}
	defer h.unregister(c)

	log := h.log.With(slog.String("client_id", c.id))
	log.Info("stream client connected")

	// The dashboard never sends; CloseRead handles control frames and
	// cancels ctx once the peer disconnects.
	ctx := conn.CloseRead(r.Context())

	if h.Greeting != nil {
		for _, env := range h.Greeting() {
			data, err := env.ToJSON()
			if err != nil {
				continue
			}
			if err := h.write(ctx, conn, data); err != nil {
				log.Debug("greeting write failed", sl.Err(err))
				return
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("stream client disconnected")
			return
		case <-c.done:
			return
		case data := <-c.frames:
			if err := h.write(ctx, conn, data); err != nil {
				log.Debug("stream write failed", sl.Err(err))
				return
			}
		}
	}
}

func (h *Hub) write(ctx context.Context, conn *websocket.Conn, data []byte) error {
	wctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, data)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	h.metrics.StreamClients.Set(float64(len(h.clients)))
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c.id)
	c.stop()
	h.metrics.StreamClients.Set(float64(len(h.clients)))
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, c := range h.clients {
		c.stop()
	}
}
