// FilePath: internal/hub/hub.go
package hub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bartech/facilityhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// Event names emitted to observers.
const (
	EventConnected     = "connected"
	EventReadingUpdate = "reading_update"
	EventLatestData    = "latest_data"
)

// Event is the envelope delivered to subscribed observers.
type Event struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Subscription is one observer's registration. Events arrive on a buffered
// channel; the transport adapter drains it and owns the unsubscribe call.
type Subscription struct {
	ID          string
	FacilityID  string // "" means all facilities
	ConnectedAt time.Time

	ch chan Event
	// consecutive failed deliveries; reset on every successful send
	stalled atomic.Int32
}

// Events returns the receive side of the subscription channel. The channel
// is closed by Unsubscribe.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

func (s *Subscription) matches(facilityID string) bool {
	return s.FacilityID == "" || s.FacilityID == facilityID
}

// SnapshotSource supplies the current latest reading per active facility for
// on-demand snapshot requests.
type SnapshotSource interface {
	LatestSnapshot(ctx context.Context) ([]*models.Reading, error)
}

// Hub fans newly appended readings out to subscribed observers. Delivery is
// per-observer isolated: a full channel drops that one delivery and never
// blocks the publisher or other observers. Per-facility ordering follows
// publish order, which the ingestion path ties to store commit order.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]*Subscription
	source  SnapshotSource
	buffer  int
	dropped atomic.Int64
}

func New(source SnapshotSource) *Hub {
	return &Hub{
		subs:   make(map[string]*Subscription),
		source: source,
		buffer: 64,
	}
}

// Subscribe registers an observer, optionally filtered to one facility, and
// immediately delivers a welcome event on the new channel.
func (h *Hub) Subscribe(facilityID string) *Subscription {
	sub := &Subscription{
		ID:          nuts.NID("sub", 12),
		FacilityID:  facilityID,
		ConnectedAt: time.Now().UTC(),
		ch:          make(chan Event, h.buffer),
	}

	h.mu.Lock()
	h.subs[sub.ID] = sub
	h.mu.Unlock()

	h.deliver(sub, Event{
		Event:     EventConnected,
		Timestamp: sub.ConnectedAt,
		Data: map[string]string{
			"message":   "connected to real-time monitoring",
			"client_id": sub.ID,
		},
	})

	nuts.L.Infof("[Hub] Subscription %s connected (filter=%q)", sub.ID, facilityID)
	return sub
}

// Unsubscribe removes a subscription and closes its channel. Idempotent:
// a second call for the same handle is a no-op.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	_, exists := h.subs[sub.ID]
	if exists {
		delete(h.subs, sub.ID)
		close(sub.ch)
	}
	h.mu.Unlock()

	if exists {
		nuts.L.Infof("[Hub] Subscription %s disconnected", sub.ID)
	}
}

// Publish delivers the reading to every subscription whose filter matches.
func (h *Hub) Publish(reading *models.Reading) {
	event := Event{
		Event:     EventReadingUpdate,
		Timestamp: time.Now().UTC(),
		Data:      reading,
	}

	h.mu.RLock()
	targets := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		if sub.matches(reading.FacilityID) {
			targets = append(targets, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		h.deliver(sub, event)
	}
}

// Snapshot fetches the current latest readings and delivers them to the
// requesting subscription only.
func (h *Hub) Snapshot(ctx context.Context, sub *Subscription) error {
	readings, err := h.source.LatestSnapshot(ctx)
	if err != nil {
		return err
	}

	h.deliver(sub, Event{
		Event:     EventLatestData,
		Timestamp: time.Now().UTC(),
		Data:      readings,
	})
	return nil
}

// SubscriberCount returns the number of live subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// DroppedDeliveries returns the total deliveries dropped due to slow observers.
func (h *Hub) DroppedDeliveries() int64 {
	return h.dropped.Load()
}

// Reap removes subscriptions whose transport stopped draining: once an
// observer has missed maxStalled consecutive deliveries it is considered
// dead and dropped. Safety net for transports that failed to unsubscribe.
func (h *Hub) Reap(maxStalled int) int {
	h.mu.Lock()
	reaped := 0
	for id, sub := range h.subs {
		if int(sub.stalled.Load()) >= maxStalled {
			delete(h.subs, id)
			close(sub.ch)
			reaped++
			nuts.L.Warnf("[Hub] Reaped stalled subscription %s", id)
		}
	}
	h.mu.Unlock()
	return reaped
}

// deliver attempts a non-blocking send. Sending on the channel of a
// subscription that was concurrently unsubscribed would panic on the closed
// channel, so delivery re-checks membership under the read lock.
func (h *Hub) deliver(sub *Subscription, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, live := h.subs[sub.ID]; !live {
		return
	}

	select {
	case sub.ch <- event:
		sub.stalled.Store(0)
	default:
		sub.stalled.Add(1)
		h.dropped.Add(1)
		nuts.L.Warnf("[Hub] Dropped %s delivery to slow subscription %s", event.Event, sub.ID)
	}
}
