package services

import (
	"encoding/json"
	"sync"

	"github.com/royalbingo/bingo-backend/utils/logger"
)

// Hub tracks every live websocket connection, across all rooms.
// Fanout is fire-and-forget: a full or closed send buffer drops the
// message rather than blocking anyone else.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client // keyed by session id
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
}

func (h *Hub) snapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, c)
	}
	return out
}

// BroadcastGlobal delivers an event to every connection.
func (h *Hub) BroadcastGlobal(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Errorf("[hub] marshal broadcast: %v", err)
		return
	}
	for _, c := range h.snapshot() {
		c.enqueue(payload)
	}
}

// NotifyUser delivers an event to every connection authenticated as the
// given user (balance pushes from deposit approvals).
func (h *Hub) NotifyUser(userID uint, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Errorf("[hub] marshal notify: %v", err)
		return
	}
	for _, c := range h.snapshot() {
		if c.userID() == userID {
			c.enqueue(payload)
		}
	}
}
