package api

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Hub fans out broadcast events to every connected SSE subscriber.
type Hub struct {
	mu        sync.Mutex
	clients   map[chan []byte]struct{}
	broadcast chan []byte
	logger    *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:   make(map[chan []byte]struct{}),
		broadcast: make(chan []byte, 256),
		logger:    logger.With("component", "event-hub"),
	}
}

// Run drains the broadcast channel and fans each message out to every
// subscriber, until ctx-less shutdown via process exit (the hub has no
// Stop; subscribers cancel their own subscriptions).
func (h *Hub) Run() {
	for data := range h.broadcast {
		h.mu.Lock()
		for ch := range h.clients {
			select {
			case ch <- data:
			default:
				h.logger.Warn("subscriber channel full, dropping event")
			}
		}
		h.mu.Unlock()
	}
}

// Subscribe registers a new SSE subscriber and returns its channel and a
// cancel function to unregister it.
func (h *Hub) Subscribe() (chan []byte, func()) {
	ch := make(chan []byte, 16)

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		delete(h.clients, ch)
		h.mu.Unlock()
	}
}

// BroadcastEvent marshals evt and queues it for every subscriber.
func (h *Hub) BroadcastEvent(evt Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("failed to marshal event", "error", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("broadcast channel full, dropping event")
	}
}
