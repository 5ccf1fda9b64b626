// Package hub fans simulation payloads out to connected websocket clients.
// Clients subscribe to topics; publishing reports how many clients actually
// received the payload so callers can react to an empty room.
package hub

import (
	"sync"

	"github.com/routecast/navrig/internal/monitoring"
)

// DefaultTopics are the subscriptions every client starts with: telemetry
// samples and state announcements.
func DefaultTopics() []string { return []string{"data", "state"} }

// Subscriber is one connected client. Send must be safe to call from
// multiple goroutines.
type Subscriber interface {
	// Send delivers one payload. An error marks the client dead; the hub
	// removes it.
	Send(payload interface{}) error
}

// Metrics observes hub activity. Implementations must be safe for
// concurrent use.
type Metrics interface {
	RecordPublish(topic string, delivered int)
	RecordDrop()
}

// Hub tracks connected clients and their topic subscriptions.
type Hub struct {
	mu      sync.Mutex
	clients map[Subscriber]map[string]struct{}
	metrics Metrics
}

// New builds an empty hub. metrics may be nil.
func New(metrics Metrics) *Hub {
	return &Hub{
		clients: make(map[Subscriber]map[string]struct{}),
		metrics: metrics,
	}
}

// Add registers a client. With no topics the client gets the default
// subscriptions.
func (h *Hub) Add(c Subscriber, topics ...string) {
	if len(topics) == 0 {
		topics = DefaultTopics()
	}
	set := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		set[t] = struct{}{}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = set
}

// UpdateTopics replaces a client's subscriptions. Unknown clients are
// ignored.
func (h *Hub) UpdateTopics(c Subscriber, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	next := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		next[t] = struct{}{}
	}
	h.clients[c] = next
}

// Remove drops a client. Removing an unknown client is a no-op.
func (h *Hub) Remove(c Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// Count reports the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish fans payload out to every client subscribed to topic and returns
// how many deliveries succeeded. Sends run concurrently; clients whose Send
// fails are removed.
func (h *Hub) Publish(payload interface{}, topic string) int {
	h.mu.Lock()
	var targets []Subscriber
	for c, topics := range h.clients {
		if _, ok := topics[topic]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()

	var (
		wg        sync.WaitGroup
		resultMu  sync.Mutex
		delivered int
		failed    []Subscriber
	)
	for _, c := range targets {
		wg.Add(1)
		go func(c Subscriber) {
			defer wg.Done()
			if err := c.Send(payload); err != nil {
				resultMu.Lock()
				failed = append(failed, c)
				resultMu.Unlock()
				return
			}
			resultMu.Lock()
			delivered++
			resultMu.Unlock()
		}(c)
	}
	wg.Wait()

	for _, c := range failed {
		h.Remove(c)
		monitoring.Logf("Removed unreachable client from hub (topic %s)", topic)
		if h.metrics != nil {
			h.metrics.RecordDrop()
		}
	}
	if h.metrics != nil {
		h.metrics.RecordPublish(topic, delivered)
	}
	return delivered
}
