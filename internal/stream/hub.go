package stream

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/jengzang/location-bridge-go/internal/location"
)

var _ location.EventSink = (*Hub)(nil)

// Envelope is the wire form of every event pushed to clients
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub fans events out to connected clients. It implements location.EventSink.
type Hub struct {
	logger  *slog.Logger
	clients map[*Client]struct{}
	mu      sync.RWMutex
}

// Client is one connected subscriber. A nil filter receives every event.
type Client struct {
	Send   chan []byte
	filter map[string]bool
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:  logger,
		clients: map[*Client]struct{}{},
	}
}

// Register adds a client interested in the given events, all events when none are given
func (h *Hub) Register(events ...string) *Client {
	client := &Client{Send: make(chan []byte, 64)}
	if len(events) > 0 {
		client.filter = make(map[string]bool, len(events))
		for _, e := range events {
			client.filter[e] = true
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
	return client
}

// Unregister removes the client and closes its send channel
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Emit encodes the event once and queues it on every interested client.
// Slow clients drop events instead of blocking the caller.
func (h *Hub) Emit(name string, payload any) {
	msg, err := json.Marshal(Envelope{Event: name, Data: payload})
	if err != nil {
		h.logger.Error("failed to encode event", "event", name, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.filter != nil && !client.filter[name] {
			continue
		}
		select {
		case client.Send <- msg:
		default:
			h.logger.Warn("dropping event for slow client", "event", name)
		}
	}
}
