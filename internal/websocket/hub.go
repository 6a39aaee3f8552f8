package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/princekumarofficial/assets-service/internal/types"
)

// Hub tracks the live connections of each user and delivers owner
// notifications to them. A user may hold several connections at once.
// Only the Run loop closes a client's send channel.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	deliveries chan delivery
	done       chan struct{}
}

type delivery struct {
	userID string
	event  *types.Event
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliveries: make(chan delivery, 256),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and deliveries until ctx is cancelled, then
// closes every remaining connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for userID, set := range h.clients {
				for c := range set {
					close(c.send)
				}
				delete(h.clients, userID)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[c.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[c.userID] = set
			}
			set[c] = struct{}{}
			h.mu.Unlock()
			slog.Info("websocket client connected", slog.String("user_id", c.userID))

		case c := <-h.unregister:
			h.mu.Lock()
			h.remove(c)
			h.mu.Unlock()

		case d := <-h.deliveries:
			h.deliver(d)
		}
	}
}

func (h *Hub) deliver(d delivery) {
	msg, err := encodeEvent(d.event)
	if err != nil {
		slog.Error("failed to encode event", slog.String("type", string(d.event.Type)), slog.String("error", err.Error()))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients[d.userID] {
		select {
		case c.send <- msg:
		default:
			slog.Warn("websocket client too slow, dropping connection", slog.String("user_id", d.userID))
			h.remove(c)
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(c *Client) {
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	slog.Info("websocket client disconnected", slog.String("user_id", c.userID))
}

// Register adds c to the hub. It returns false when the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// SendToUser queues event for every connection userID holds. It never
// blocks; the event is dropped if the queue is full.
func (h *Hub) SendToUser(userID string, event *types.Event) {
	select {
	case h.deliveries <- delivery{userID: userID, event: event}:
	default:
		slog.Warn("websocket delivery queue full, dropping event",
			slog.String("user_id", userID), slog.String("type", string(event.Type)))
	}
}

// IsUserConnected reports whether userID has at least one live connection.
func (h *Hub) IsUserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}
