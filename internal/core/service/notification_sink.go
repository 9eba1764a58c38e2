package service

import (
	"slices"
	"sync"
	"time"

	"github.com/rl1809/crypto-pins/internal/core/domain"
)

const maxRetainedEvents = 50

// Subscription selects events by item and type. A nil ItemID matches every item.
type Subscription struct {
	ItemID   *int
	Types    []domain.EventType
	Callback func(domain.AvailabilityEvent)
}

func (s Subscription) matches(e domain.AvailabilityEvent) bool {
	if s.ItemID != nil && *s.ItemID != e.Item.ID {
		return false
	}
	return slices.Contains(s.Types, e.Type)
}

// NotificationSink keeps the newest events first, capped at maxRetainedEvents, and
// fans each event out to matching subscriptions.
type NotificationSink struct {
	mu     sync.Mutex
	events []domain.AvailabilityEvent
	unread int

	subsMu sync.RWMutex
	subs   []subscriptionEntry
	nextID uint64

	now func() time.Time
}

type subscriptionEntry struct {
	id  uint64
	sub Subscription
}

func NewNotificationSink(now func() time.Time) *NotificationSink {
	if now == nil {
		now = time.Now
	}
	return &NotificationSink{
		events: make([]domain.AvailabilityEvent, 0, maxRetainedEvents),
		now:    now,
	}
}

// Publish stores events and invokes matching subscriptions synchronously, in
// registration order.
func (n *NotificationSink) Publish(events ...domain.AvailabilityEvent) {
	if len(events) == 0 {
		return
	}

	n.mu.Lock()
	for _, e := range events {
		if len(n.events) < maxRetainedEvents {
			n.events = append(n.events, domain.AvailabilityEvent{})
		}
		copy(n.events[1:], n.events[:len(n.events)-1])
		n.events[0] = e
		n.unread++
	}
	n.mu.Unlock()

	n.subsMu.RLock()
	subs := slices.Clone(n.subs)
	n.subsMu.RUnlock()

	for _, e := range events {
		for _, entry := range subs {
			if entry.sub.Callback != nil && entry.sub.matches(e) {
				entry.sub.Callback(e)
			}
		}
	}
}

// Dispatch builds an event for item and publishes it. An empty next status is derived
// from the item.
func (n *NotificationSink) Dispatch(item domain.InventoryItem, eventType domain.EventType, previous, next domain.StockStatus) domain.AvailabilityEvent {
	e := newAvailabilityEvent(item, eventType, previous, next, n.now())
	n.Publish(e)
	return e
}

func (n *NotificationSink) Subscribe(sub Subscription) func() {
	n.subsMu.Lock()
	defer n.subsMu.Unlock()

	n.nextID++
	id := n.nextID
	n.subs = append(n.subs, subscriptionEntry{id: id, sub: sub})

	return func() {
		n.subsMu.Lock()
		defer n.subsMu.Unlock()
		n.subs = slices.DeleteFunc(n.subs, func(e subscriptionEntry) bool {
			return e.id == id
		})
	}
}

func (n *NotificationSink) Events() []domain.AvailabilityEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.events)
}

func (n *NotificationSink) UnreadCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.unread
}

func (n *NotificationSink) MarkAsRead() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unread = 0
}

func (n *NotificationSink) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = n.events[:0]
	n.unread = 0
}

func (n *NotificationSink) ItemEvents(itemID int) []domain.AvailabilityEvent {
	return n.filter(func(e domain.AvailabilityEvent) bool { return e.Item.ID == itemID })
}

func (n *NotificationSink) EventsByType(eventType domain.EventType) []domain.AvailabilityEvent {
	return n.filter(func(e domain.AvailabilityEvent) bool { return e.Type == eventType })
}

func (n *NotificationSink) filter(keep func(domain.AvailabilityEvent) bool) []domain.AvailabilityEvent {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []domain.AvailabilityEvent
	for _, e := range n.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
