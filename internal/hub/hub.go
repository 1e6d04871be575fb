package hub

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event types published for each processed line.
const (
	EventPlain     = "plain"
	EventMalformed = "malformed"
	EventUnknown   = "unknown"
)

// Event is one message fanned out to web clients. Record-derived events use
// the record discriminant as Type.
type Event struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`
	Text string    `json:"text"`           // rendered console text
	Data any       `json:"data,omitempty"` // decoded record, if any
}

// Client is one subscriber.
type Client struct {
	ID     string
	Events chan Event
	Done   chan struct{}
}

// NewClient returns a client with a buffer of size events.
func NewClient(id string, size int) *Client {
	return &Client{
		ID:     id,
		Events: make(chan Event, size),
		Done:   make(chan struct{}),
	}
}

// Hub tracks subscribers and broadcasts events to them. A slow client never
// blocks the monitor: events that do not fit in its buffer are dropped.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     zerolog.Logger
}

// New creates an empty hub.
func New(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		log:     log,
	}
}

// Register adds a client.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	h.log.Debug().Str("client", client.ID).Msg("client registered")
}

// Unregister removes a client. The handler that created the client owns its
// Done channel and closes it.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[clientID]; ok {
		delete(h.clients, clientID)
		h.log.Debug().Str("client", clientID).Msg("client unregistered")
	}
}

// Len returns the number of registered clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast delivers event to every registered client without blocking.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.Events <- event:
		case <-client.Done:
		default:
			h.log.Warn().Str("client", client.ID).Str("event", event.Type).Msg("client buffer full, dropping event")
		}
	}
}

// FormatSSE encodes event for the Server-Sent Events protocol:
//
//	event: <type>\ndata: <json>\n\n
func FormatSSE(event Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return fmt.Appendf(nil, "event: %s\ndata: %s\n\n", event.Type, data), nil
}
