package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/crypto-pins/internal/core/domain"
)

// AvailabilityDiffer turns successive item snapshots into availability events. Each
// transition is reported once: the last-seen snapshot is overwritten after every diff.
type AvailabilityDiffer struct {
	mu                sync.Mutex
	previous          map[int]domain.InventoryItem
	lowStockThreshold int
	now               func() time.Time
}

func NewAvailabilityDiffer(lowStockThreshold int, now func() time.Time) *AvailabilityDiffer {
	if lowStockThreshold <= 0 {
		lowStockThreshold = domain.LowStockThreshold
	}
	if now == nil {
		now = time.Now
	}
	return &AvailabilityDiffer{
		previous:          make(map[int]domain.InventoryItem),
		lowStockThreshold: lowStockThreshold,
		now:               now,
	}
}

// Prime records a baseline without emitting events.
func (d *AvailabilityDiffer) Prime(items []domain.InventoryItem) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, item := range items {
		if prev, seen := d.previous[item.ID]; seen && item.Version < prev.Version {
			continue
		}
		d.previous[item.ID] = item
	}
}

// Diff compares items against the last-seen snapshots. Items never seen before only
// establish a baseline. Snapshots older than the stored one are dropped.
func (d *AvailabilityDiffer) Diff(items []domain.InventoryItem) []domain.AvailabilityEvent {
	d.mu.Lock()
	defer d.mu.Unlock()

	var events []domain.AvailabilityEvent
	for _, item := range items {
		prev, seen := d.previous[item.ID]
		if seen && item.Version < prev.Version {
			continue
		}
		if seen {
			events = append(events, d.classify(prev, item)...)
		}
		d.previous[item.ID] = item
	}
	return events
}

func (d *AvailabilityDiffer) classify(prev, item domain.InventoryItem) []domain.AvailabilityEvent {
	var events []domain.AvailabilityEvent
	now := d.now()

	previousStatus := prev.Status()
	currentStatus := item.Status()
	if previousStatus != currentStatus {
		eventType := domain.EventStatusChanged
		switch {
		case currentStatus == domain.StockStatusOutOfStock:
			eventType = domain.EventSoldOut
		case previousStatus == domain.StockStatusOutOfStock:
			eventType = domain.EventBackInStock
		}
		events = append(events, newAvailabilityEvent(item, eventType, previousStatus, currentStatus, now))
	}

	previousSellable := prev.Sellable()
	currentSellable := item.Sellable()
	if previousSellable > d.lowStockThreshold && currentSellable <= d.lowStockThreshold && currentSellable > 0 {
		events = append(events, newAvailabilityEvent(item, domain.EventLowStockAlert, previousStatus, currentStatus, now))
	}

	return events
}

func newAvailabilityEvent(item domain.InventoryItem, eventType domain.EventType, previous, next domain.StockStatus, at time.Time) domain.AvailabilityEvent {
	if next == "" {
		next = item.Status()
	}
	return domain.AvailabilityEvent{
		ID:             uuid.NewString(),
		Type:           eventType,
		Item:           item,
		PreviousStatus: previous,
		NewStatus:      next,
		Timestamp:      at,
		Message:        domain.EventMessage(item, eventType, previous, next),
	}
}
