package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor_Boundaries(t *testing.T) {
	cases := []struct {
		sellable int
		want     StockStatus
	}{
		{-2, StockStatusOutOfStock},
		{0, StockStatusOutOfStock},
		{1, StockStatusLowStock},
		{50, StockStatusLowStock},
		{51, StockStatusLimited},
		{100, StockStatusLimited},
		{101, StockStatusInStock},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFor(tc.sellable), "sellable=%d", tc.sellable)
	}
}

func TestInventoryItem_StatusUsesReserved(t *testing.T) {
	item := InventoryItem{TotalStock: 200, AvailableStock: 60, ReservedStock: 10}
	assert.Equal(t, StockStatusLowStock, item.Status())

	item.ReservedStock = 60
	assert.Equal(t, StockStatusOutOfStock, item.Status())
}

func TestInventoryItem_StockPercentage(t *testing.T) {
	assert.Equal(t, 47, InventoryItem{TotalStock: 500, AvailableStock: 234}.StockPercentage())
	assert.Equal(t, 19, InventoryItem{TotalStock: 250, AvailableStock: 47}.StockPercentage())
	assert.Equal(t, 0, InventoryItem{TotalStock: 0, AvailableStock: 0}.StockPercentage())
}

func TestEventMessage(t *testing.T) {
	item := InventoryItem{Name: "Saga Monke", AvailableStock: 40, ReservedStock: 5}

	assert.Equal(t, "Saga Monke is now sold out!", EventMessage(item, EventSoldOut, "", ""))
	assert.Equal(t, "Saga Monke is back in stock! 35 available", EventMessage(item, EventBackInStock, "", ""))
	assert.Equal(t, "Only 35 Saga Monke pins left - get yours before they're gone!", EventMessage(item, EventLowStockAlert, "", ""))
	assert.Equal(t, "Saga Monke availability changed from limited to low_stock",
		EventMessage(item, EventStatusChanged, StockStatusLimited, StockStatusLowStock))
}

func TestNotificationPreferences_Allows(t *testing.T) {
	prefs := DefaultNotificationPreferences()
	lowStock := AvailabilityEvent{Type: EventLowStockAlert, Item: InventoryItem{ID: 3}}
	assert.True(t, prefs.Allows(lowStock))

	prefs.LowStockAlerts = false
	assert.False(t, prefs.Allows(lowStock))
	assert.True(t, prefs.Allows(AvailabilityEvent{Type: EventStatusChanged, Item: InventoryItem{ID: 3}}))

	prefs = DefaultNotificationPreferences()
	prefs.WatchedItems = []int{1, 2}
	assert.False(t, prefs.Allows(lowStock))
	assert.True(t, prefs.Allows(AvailabilityEvent{Type: EventSoldOut, Item: InventoryItem{ID: 2}}))
}

func TestNFTCollection_Lamports(t *testing.T) {
	c := NFTCollection{PriceInSol: decimal.RequireFromString("2.5")}
	assert.Equal(t, uint64(2_500_000_000), c.Lamports())

	c.PriceInSol = decimal.RequireFromString("0.0000000019")
	assert.Equal(t, uint64(1), c.Lamports())
}

func TestFormatTimestamp(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "Just now", FormatTimestamp(now.Add(-30*time.Second), now))
	assert.Equal(t, "5m ago", FormatTimestamp(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", FormatTimestamp(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2d ago", FormatTimestamp(now.Add(-50*time.Hour), now))
}

func TestSolToUSD(t *testing.T) {
	assert.True(t, decimal.RequireFromString("197").Equal(SolToUSD(decimal.NewFromInt(2))))
}
