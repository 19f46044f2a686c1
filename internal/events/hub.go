// Package events pushes relay activity (accepted pushes, armed redirects)
// to connected overlay UIs over WebSocket, so they can mirror state without
// polling /ping themselves.
package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Hub manages WebSocket connections and fan-out.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	mu         sync.RWMutex
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		logger:     logger,
	}
}

// Run processes hub events. Call this in a goroutine; returns when the
// context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("events hub shutting down")
			h.shutdown()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("events client registered", zap.String("connID", client.connID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("events client unregistered", zap.String("connID", client.connID))

		case payload := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					// Slow client; drop rather than stall the hub.
					h.logger.Debug("events client send buffer full, dropping",
						zap.String("connID", client.connID),
					)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues a payload for all connected clients. Non-blocking; when
// the hub's queue is full the event is dropped.
func (h *Hub) Broadcast(payload []byte) {
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Debug("events broadcast queue full, dropping")
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		_ = client.conn.Close()
	}
	h.clients = make(map[*Client]bool)
}
