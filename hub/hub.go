// Package hub fans successfully applied draw events out to live
// subscribers. Delivery is non-blocking for the publisher: every
// subscriber owns a bounded queue, and when it is full the oldest pending
// event is dropped so a slow client degrades to missed frames instead of
// stalling the system.
package hub

import (
	"encoding/json"
	"fmt"
	"sync"

	"canvas-collab/core"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

// DefaultQueueSize bounds each subscriber's pending event queue.
const DefaultQueueSize = 256

var (
	eventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "canvas_hub_events_published_total",
		Help: "Draw events handed to the hub for fan-out.",
	})
	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "canvas_hub_events_dropped_total",
		Help: "Events dropped because a subscriber queue was full.",
	})
	subscriberGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "canvas_hub_subscribers",
		Help: "Currently registered live subscribers.",
	})
)

// Event is one applied draw, delivered to subscribers in publish order.
// It marshals as the ["canvasID", point] tuple the client expects.
type Event struct {
	CanvasID string
	Point    core.Point
}

func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.CanvasID, e.Point})
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 2 {
		return fmt.Errorf("event must be a [canvasID, point] pair, got %d elements", len(parts))
	}
	if err := json.Unmarshal(parts[0], &e.CanvasID); err != nil {
		return err
	}
	return json.Unmarshal(parts[1], &e.Point)
}

// Subscription is one live delivery channel. The channel returned by
// Events is closed when the subscription is closed; consumers should
// range over it.
type Subscription struct {
	id  string
	ch  chan Event
	hub *Hub

	// canvas ids this subscription is scoped to; empty means all canvases.
	canvases map[string]struct{}
	closed   bool // guarded by hub.mu
}

// ID is the subscription's ulid, used for log correlation.
func (s *Subscription) ID() string { return s.id }

// Events returns the delivery channel.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Close deregisters the subscription. Safe to call multiple times.
func (s *Subscription) Close() { s.hub.Unsubscribe(s) }

// Hub tracks the live subscriber set. Subscribers registered without
// canvas ids receive every canvas's events (the current client contract);
// per-canvas groups exist so server-side filtering stays an additive
// change.
type Hub struct {
	mu        sync.Mutex
	queueSize int
	all       map[*Subscription]struct{}
	groups    map[string]map[*Subscription]struct{}
}

// New creates a hub whose subscribers buffer up to queueSize pending
// events each.
func New(queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Hub{
		queueSize: queueSize,
		all:       make(map[*Subscription]struct{}),
		groups:    make(map[string]map[*Subscription]struct{}),
	}
}

// Subscribe registers a new live channel. With no arguments the channel
// receives every subsequently published event; with canvas ids it
// receives only those canvases' events. There is no backfill: late
// joiners read a snapshot separately and rely on the channel from then
// on.
func (h *Hub) Subscribe(canvasIDs ...string) *Subscription {
	s := &Subscription{
		id:  ulid.Make().String(),
		ch:  make(chan Event, h.queueSize),
		hub: h,
	}

	h.mu.Lock()
	if len(canvasIDs) == 0 {
		h.all[s] = struct{}{}
	} else {
		s.canvases = make(map[string]struct{}, len(canvasIDs))
		for _, id := range canvasIDs {
			s.canvases[id] = struct{}{}
			group, ok := h.groups[id]
			if !ok {
				group = make(map[*Subscription]struct{})
				h.groups[id] = group
			}
			group[s] = struct{}{}
		}
	}
	h.mu.Unlock()

	subscriberGauge.Inc()
	logrus.WithField("subscription_id", s.id).Debug("Subscriber registered")
	return s
}

// Unsubscribe removes s and closes its channel. Idempotent; events still
// queued for s are discarded by the close.
func (h *Hub) Unsubscribe(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(s)
}

// Publish delivers (canvasID, p) to every registered subscriber without
// blocking. Calls are serialized, so delivery order across all
// subscribers equals publish order globally, not just per canvas.
func (h *Hub) Publish(canvasID string, p core.Point) {
	ev := Event{CanvasID: canvasID, Point: p}

	h.mu.Lock()
	for s := range h.all {
		h.enqueue(s, ev)
	}
	for s := range h.groups[canvasID] {
		h.enqueue(s, ev)
	}
	h.mu.Unlock()

	eventsPublished.Inc()
}

// Subscribers reports how many subscriptions are currently registered.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	seen := make(map[*Subscription]struct{}, len(h.all))
	for s := range h.all {
		seen[s] = struct{}{}
	}
	for _, group := range h.groups {
		for s := range group {
			seen[s] = struct{}{}
		}
	}
	return len(seen)
}

// Close shuts every subscription down, for process shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.all {
		h.remove(s)
	}
	for _, group := range h.groups {
		for s := range group {
			h.remove(s)
		}
	}
}

// enqueue performs the non-blocking send with the drop-oldest policy.
// Callers must hold h.mu, which also makes the send safe against a
// concurrent close: a removed subscription is no longer reachable here.
func (h *Hub) enqueue(s *Subscription, ev Event) {
	for {
		select {
		case s.ch <- ev:
			return
		default:
		}
		// Queue full: evict the oldest pending event and retry. The
		// consumer may win the race and drain it first, which is fine.
		select {
		case <-s.ch:
			eventsDropped.Inc()
			logrus.WithField("subscription_id", s.id).Debug("Subscriber queue full, dropped oldest event")
		default:
		}
	}
}

// remove deregisters s and closes its channel. Callers must hold h.mu.
func (h *Hub) remove(s *Subscription) {
	if s.closed {
		return
	}
	s.closed = true
	delete(h.all, s)
	for id := range s.canvases {
		if group, ok := h.groups[id]; ok {
			delete(group, s)
			if len(group) == 0 {
				delete(h.groups, id)
			}
		}
	}
	close(s.ch)
	subscriberGauge.Dec()
	logrus.WithField("subscription_id", s.id).Debug("Subscriber removed")
}
