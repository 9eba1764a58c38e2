package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/crypto-pins/internal/core/domain"
)

func newTestAvailability(t *testing.T, items []domain.InventoryItem) *AvailabilityService {
	t.Helper()
	store, clock := newTestStore(t, items)
	svc := NewAvailabilityService(store, NewAvailabilityDiffer(50, clock.Now), NewNotificationSink(clock.Now), zerolog.Nop())
	t.Cleanup(svc.Close)
	return svc
}

func TestAvailabilityService_ReservationDrivesEvents(t *testing.T) {
	svc := newTestAvailability(t, []domain.InventoryItem{item(1, 200, 60, 0)})

	require.True(t, svc.Store().Reserve(1, 15))

	events := svc.Sink().Events()
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventLowStockAlert, events[0].Type, "newest first")
	assert.Equal(t, domain.EventStatusChanged, events[1].Type)
	assert.Equal(t, 45, events[0].Item.Sellable())
}

func TestAvailabilityService_SoldOutThenBackInStock(t *testing.T) {
	svc := newTestAvailability(t, []domain.InventoryItem{item(1, 10, 3, 0)})

	require.True(t, svc.Store().Reserve(1, 3))
	require.True(t, svc.Store().Confirm(1, 3))
	require.Equal(t, []domain.EventType{domain.EventSoldOut}, eventTypes(svc.Sink().Events()))

	restock := 5
	svc.Store().Apply([]domain.StockUpdate{{ItemID: 1, AvailableStock: &restock}})

	events := svc.Sink().Events()
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventBackInStock, events[0].Type)
}

func TestAvailabilityService_NoEventsWithoutTransition(t *testing.T) {
	svc := newTestAvailability(t, domain.SeedInventory(time.Now()))

	require.True(t, svc.Store().Reserve(2, 1))
	require.True(t, svc.Store().Release(2, 1))
	require.NoError(t, svc.Store().Refresh(context.Background()))

	assert.Empty(t, svc.Sink().Events())
}

func TestAvailabilityService_Close(t *testing.T) {
	store, clock := newTestStore(t, []domain.InventoryItem{item(1, 200, 60, 0)})
	svc := NewAvailabilityService(store, NewAvailabilityDiffer(50, clock.Now), NewNotificationSink(clock.Now), zerolog.Nop())

	svc.Close()
	store.Reserve(1, 30)

	assert.Empty(t, svc.Sink().Events())
}

type fakeFeed struct {
	updates [][]domain.StockUpdate
}

func (f *fakeFeed) Subscribe(ctx context.Context, handle func([]domain.StockUpdate)) error {
	for _, u := range f.updates {
		handle(u)
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestAvailabilityService_ConsumeFeed(t *testing.T) {
	svc := newTestAvailability(t, []domain.InventoryItem{item(1, 200, 60, 0), item(2, 100, 60, 0)})
	zero := 0
	reserved := 10
	feed := &fakeFeed{updates: [][]domain.StockUpdate{
		{{ItemID: 1, AvailableStock: &zero}},
		{{ItemID: 2, ReservedStock: &reserved}, {ItemID: 99, AvailableStock: &zero}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	var err error
	go func() {
		defer wg.Done()
		err = svc.ConsumeFeed(ctx, feed)
	}()

	require.Eventually(t, func() bool { return len(svc.Sink().Events()) == 3 }, time.Second, time.Millisecond)
	cancel()
	wg.Wait()
	assert.ErrorIs(t, err, context.Canceled)

	first, _ := svc.Store().Get(1)
	assert.Equal(t, 0, first.AvailableStock)
	second, _ := svc.Store().Get(2)
	assert.Equal(t, 10, second.ReservedStock)

	types := eventTypes(svc.Sink().Events())
	assert.Contains(t, types, domain.EventSoldOut)
	assert.Contains(t, types, domain.EventLowStockAlert)
}
