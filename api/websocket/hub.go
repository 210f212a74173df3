// Package websocket streams bus notifications to subscribed sessions. The
// hub is the single bus consumer; per-session topic filters decide who sees
// which frame, and slow sessions are dropped rather than ever blocking the
// engine.
package websocket

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/0xmhha/forge-indexer-go/events"
	"github.com/0xmhha/forge-indexer-go/internal/constants"
)

// hubSubscriptionID names the hub's bus subscription
const hubSubscriptionID events.SubscriptionID = "websocket-hub"

// Hub owns the session set and fans bus notifications out to it
type Hub struct {
	bus     *events.Bus
	logger  *zap.Logger
	metrics *Metrics

	clients map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
}

// NewHub creates a hub over the notification bus
func NewHub(bus *events.Bus, logger *zap.Logger) *Hub {
	return &Hub{
		bus:        bus,
		logger:     logger,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// SetMetrics attaches Prometheus metrics. Optional.
func (h *Hub) SetMetrics(metrics *Metrics) {
	h.metrics = metrics
}

func (h *Hub) recordClients(count int) {
	if h.metrics != nil {
		h.metrics.SetClients(count)
	}
}

// Run consumes the bus and the session lifecycle channels. Call in a
// goroutine; Stop ends it.
func (h *Hub) Run() {
	sub := h.bus.Subscribe(hubSubscriptionID,
		[]events.Topic{events.TopicJournalAppended, events.TopicScanCompleted},
		constants.DefaultEventBufferSize)
	if sub == nil {
		h.logger.Warn("bus already stopped, hub not consuming")
		return
	}
	defer h.bus.Unsubscribe(hubSubscriptionID)

	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.recordClients(total)
			h.logger.Info("session registered",
				zap.String("session_id", client.id),
				zap.Int("total_sessions", total))

		case client := <-h.unregister:
			h.drop(client)

		case n, ok := <-sub.Channel:
			if !ok {
				return
			}
			h.broadcast(n)
		}
	}
}

// broadcast fans one notification out to every subscribed session.
// Non-blocking: a session whose buffer is full is dropped, the engine never
// waits for a reader.
func (h *Hub) broadcast(n events.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		h.logger.Error("failed to marshal notification", zap.Error(err))
		return
	}
	frame, err := json.Marshal(Message{Type: string(n.Topic()), Payload: payload})
	if err != nil {
		h.logger.Error("failed to marshal frame", zap.Error(err))
		return
	}

	h.mu.RLock()
	subscribed := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		if client.subscribed(n.Topic()) {
			subscribed = append(subscribed, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range subscribed {
		select {
		case client.send <- frame:
		default:
			h.logger.Warn("session too slow, dropping",
				zap.String("session_id", client.id))
			h.drop(client)
		}
	}
}

// drop removes a session and closes its send channel
func (h *Hub) drop(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.recordClients(len(h.clients))
	h.logger.Info("session unregistered",
		zap.String("session_id", client.id),
		zap.Int("total_sessions", len(h.clients)))
}

// ClientCount returns the number of connected sessions
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop ends the run loop and closes every session
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
		h.recordClients(0)
	})
}
