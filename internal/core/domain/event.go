package domain

import (
	"fmt"
	"time"
)

type EventType string

const (
	EventStatusChanged EventType = "status_changed"
	EventLowStockAlert EventType = "low_stock_alert"
	EventBackInStock   EventType = "back_in_stock"
	EventSoldOut       EventType = "sold_out"
	EventRestockSoon   EventType = "restock_soon"
)

func AllEventTypes() []EventType {
	return []EventType{EventStatusChanged, EventLowStockAlert, EventBackInStock, EventSoldOut, EventRestockSoon}
}

type AvailabilityEvent struct {
	ID             string        `json:"id"`
	Type           EventType     `json:"type"`
	Item           InventoryItem `json:"item"`
	PreviousStatus StockStatus   `json:"previousStatus,omitempty"`
	NewStatus      StockStatus   `json:"newStatus"`
	Timestamp      time.Time     `json:"timestamp"`
	Message        string        `json:"message"`
}

func EventMessage(item InventoryItem, eventType EventType, previous, next StockStatus) string {
	switch eventType {
	case EventSoldOut:
		return fmt.Sprintf("%s is now sold out!", item.Name)
	case EventBackInStock:
		return fmt.Sprintf("%s is back in stock! %d available", item.Name, item.Sellable())
	case EventLowStockAlert:
		return fmt.Sprintf("Only %d %s pins left - get yours before they're gone!", item.Sellable(), item.Name)
	case EventRestockSoon:
		return fmt.Sprintf("%s will be restocked soon", item.Name)
	case EventStatusChanged:
		return fmt.Sprintf("%s availability changed from %s to %s", item.Name, previous, next)
	default:
		return fmt.Sprintf("%s availability updated", item.Name)
	}
}

type NotificationPreferences struct {
	LowStockAlerts    bool  `json:"enableLowStockAlerts"`
	BackInStockAlerts bool  `json:"enableBackInStockAlerts"`
	SoldOutAlerts     bool  `json:"enableSoldOutAlerts"`
	WatchedItems      []int `json:"watchedItems"`
}

func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		LowStockAlerts:    true,
		BackInStockAlerts: true,
		SoldOutAlerts:     true,
	}
}

// Allows reports whether an event should be shown. An empty watch list means every item.
func (p NotificationPreferences) Allows(e AvailabilityEvent) bool {
	switch e.Type {
	case EventLowStockAlert:
		if !p.LowStockAlerts {
			return false
		}
	case EventBackInStock:
		if !p.BackInStockAlerts {
			return false
		}
	case EventSoldOut:
		if !p.SoldOutAlerts {
			return false
		}
	}

	if len(p.WatchedItems) == 0 {
		return true
	}
	for _, id := range p.WatchedItems {
		if id == e.Item.ID {
			return true
		}
	}
	return false
}
