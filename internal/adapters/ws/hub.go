// Package ws streams lifecycle events to staff dashboards over websockets.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/ports"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	sendBufferSize = 64
)

// Hub fans lifecycle events out to connected subscribers. A subscriber that
// cannot keep up is disconnected rather than slowing the others down.
type Hub struct {
	upgrader   websocket.Upgrader
	broadcast  chan message
	register   chan *subscriber
	unregister chan *subscriber
	logger     *slog.Logger
	done       chan struct{}
	active     atomic.Int64
}

type message struct {
	tenant  string
	payload []byte
}

type subscriber struct {
	hub    *Hub
	conn   *websocket.Conn
	tenant string
	send   chan []byte
}

var _ ports.EventPublisher = (*Hub)(nil)

// NewHub creates a hub. allowedOrigins restricts browser origins; empty
// allows any origin.
func NewHub(logger *slog.Logger, allowedOrigins ...string) *Hub {
	if logger == nil {
		logger = slog.Default()
	}

	h := &Hub{
		broadcast:  make(chan message, sendBufferSize),
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		logger:     logger.With(slog.String("component", "ws.Hub")),
		done:       make(chan struct{}),
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}

		for _, a := range allowed {
			if strings.EqualFold(origin, a) {
				return true
			}
		}

		return false
	}
}

// Run dispatches events until ctx is cancelled, then closes every subscriber.
func (h *Hub) Run(ctx context.Context) error {
	subscribers := make(map[*subscriber]struct{})

	for {
		select {
		case s := <-h.register:
			subscribers[s] = struct{}{}
			h.active.Store(int64(len(subscribers)))
			h.logger.Debug("subscriber connected", slog.String("tenant", s.tenant), slog.Int("subscribers", len(subscribers)))
		case s := <-h.unregister:
			if _, ok := subscribers[s]; ok {
				delete(subscribers, s)
				close(s.send)
				h.active.Store(int64(len(subscribers)))
			}
		case m := <-h.broadcast:
			for s := range subscribers {
				if s.tenant != "" && m.tenant != "" && s.tenant != m.tenant {
					continue
				}

				select {
				case s.send <- m.payload:
				default:
					h.logger.Warn("disconnecting slow subscriber", slog.String("tenant", s.tenant))
					delete(subscribers, s)
					close(s.send)
				}
			}

			h.active.Store(int64(len(subscribers)))
		case <-ctx.Done():
			close(h.done)

			for s := range subscribers {
				close(s.send)
			}

			h.active.Store(0)

			return nil
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	return int(h.active.Load())
}

// Publish implements ports.EventPublisher.
func (h *Hub) Publish(ctx context.Context, event ports.Event) error {
	payload, err := json.Marshal(envelope{Type: event.EventType(), Data: event.Payload()})
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	m := message{payload: payload}
	if e, ok := event.Payload().(domain.LifecycleEvent); ok {
		m.tenant = e.Tenant
	}

	select {
	case <-h.done:
		return domain.NewUnavailableError("event-stream", "hub stopped")
	default:
	}

	select {
	case h.broadcast <- m:
		return nil
	case <-h.done:
		return domain.NewUnavailableError("event-stream", "hub stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Handler upgrades the request and subscribes the connection. The optional
// tenant query parameter limits the feed to one tenant.
func (h *Hub) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.logger.WarnContext(c.Request.Context(), "websocket upgrade failed", slog.Any("error", err))
			return
		}

		s := &subscriber{
			hub:    h,
			conn:   conn,
			tenant: strings.ToUpper(c.Query("tenant")),
			send:   make(chan []byte, sendBufferSize),
		}

		select {
		case h.register <- s:
		case <-h.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
			_ = conn.Close()

			return
		}

		go s.writePump()
		go s.readPump()
	}
}

func (s *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client frames; it exists to process pongs and notice
// disconnects.
func (s *subscriber) readPump() {
	defer func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.done:
		}

		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(512)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.hub.logger.Debug("subscriber read failed", slog.Any("error", err))
			}

			return
		}
	}
}
