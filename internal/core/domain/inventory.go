package domain

import (
	"math"
	"time"
)

const (
	LowStockThreshold     = 50
	LimitedStockThreshold = 100
)

type StockStatus string

const (
	StockStatusInStock    StockStatus = "in_stock"
	StockStatusLimited    StockStatus = "limited"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusOutOfStock StockStatus = "out_of_stock"
)

type InventoryItem struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	TotalStock     int       `json:"totalStock"`
	AvailableStock int       `json:"availableStock"`
	ReservedStock  int       `json:"reservedStock"`
	LastUpdated    time.Time `json:"lastUpdated"`
	Version        uint64    `json:"version"` // bumped on every mutation
}

// Sellable is the stock that can still be reserved.
func (i InventoryItem) Sellable() int {
	return i.AvailableStock - i.ReservedStock
}

func (i InventoryItem) Status() StockStatus {
	return StatusFor(i.Sellable())
}

// StockPercentage is the share of total stock still available, rounded.
func (i InventoryItem) StockPercentage() int {
	if i.TotalStock <= 0 {
		return 0
	}
	return int(math.Round(float64(i.AvailableStock) / float64(i.TotalStock) * 100))
}

func StatusFor(sellable int) StockStatus {
	switch {
	case sellable <= 0:
		return StockStatusOutOfStock
	case sellable <= LowStockThreshold:
		return StockStatusLowStock
	case sellable <= LimitedStockThreshold:
		return StockStatusLimited
	default:
		return StockStatusInStock
	}
}

// StockUpdate is one push event from an external inventory feed. Nil fields are left
// untouched.
type StockUpdate struct {
	ItemID         int  `json:"itemId"`
	TotalStock     *int `json:"totalStock,omitempty"`
	AvailableStock *int `json:"availableStock,omitempty"`
	ReservedStock  *int `json:"reservedStock,omitempty"`
}

type UpdateCause string

const (
	UpdateCauseReserve UpdateCause = "reserve"
	UpdateCauseRelease UpdateCause = "release"
	UpdateCauseConfirm UpdateCause = "confirm"
	UpdateCauseTick    UpdateCause = "tick"
	UpdateCauseFeed    UpdateCause = "feed"
	UpdateCauseRefresh UpdateCause = "refresh"
)

// InventoryBatch is the set of items changed by a single store mutation.
type InventoryBatch struct {
	Cause    UpdateCause
	Items    []InventoryItem
	Quantity int // reserve, release and confirm only
	At       time.Time
}
