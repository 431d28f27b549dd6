package ws

import (
	"encoding/json"
	"sync"
)

// Client is one live-feed subscriber connection.
type Client struct {
	Send   chan []byte
	hub    *FeedHub
	mu     sync.Mutex
	closed bool
}

func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.Send)
	c.mu.Unlock()
	if c.hub != nil {
		c.hub.unregister(c)
	}
}

// trySend delivers data unless the client is closed or its buffer is full.
// Sends happen under the same lock Close takes, so a subscriber disconnecting
// mid-broadcast can never turn into a send on a closed channel.
func (c *Client) trySend(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

// FeedHub broadcasts recorded donations to every connected subscriber. The
// feed is read-only for clients; the reconciliation engine is the only writer.
type FeedHub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewFeedHub() *FeedHub {
	return &FeedHub{clients: make(map[*Client]struct{})}
}

func (h *FeedHub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	h.clients[c] = struct{}{}
}

func (h *FeedHub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// BroadcastAll sends payload to every subscriber. Slow consumers are skipped
// rather than blocking the reconciliation path.
func (h *FeedHub) BroadcastAll(payload interface{}) {
	data, _ := json.Marshal(payload)
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.trySend(data)
	}
}

func (h *FeedHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
