package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/crypto-pins/internal/core/domain"
)

func testEvent(id int, eventType domain.EventType) domain.AvailabilityEvent {
	return domain.AvailabilityEvent{
		ID:   fmt.Sprintf("evt-%d-%s", id, eventType),
		Type: eventType,
		Item: item(id, 100, 10, 0),
	}
}

func TestPublish_NewestFirstAndCapped(t *testing.T) {
	sink := NewNotificationSink(nil)

	for i := 0; i < 60; i++ {
		sink.Publish(domain.AvailabilityEvent{ID: fmt.Sprint(i), Type: domain.EventStatusChanged})
	}

	events := sink.Events()
	require.Len(t, events, maxRetainedEvents)
	assert.Equal(t, "59", events[0].ID)
	assert.Equal(t, "10", events[len(events)-1].ID)
	assert.Equal(t, 60, sink.UnreadCount())
}

func TestMarkAsReadAndClear(t *testing.T) {
	sink := NewNotificationSink(nil)
	sink.Publish(testEvent(1, domain.EventSoldOut), testEvent(2, domain.EventBackInStock))
	require.Equal(t, 2, sink.UnreadCount())

	sink.MarkAsRead()
	assert.Equal(t, 0, sink.UnreadCount())
	assert.Len(t, sink.Events(), 2)

	sink.Publish(testEvent(3, domain.EventSoldOut))
	assert.Equal(t, 1, sink.UnreadCount())

	sink.Clear()
	assert.Equal(t, 0, sink.UnreadCount())
	assert.Empty(t, sink.Events())
}

func TestSubscribe_FiltersByItemAndType(t *testing.T) {
	sink := NewNotificationSink(nil)

	var all, soldOutOnly, itemTwo []string
	sink.Subscribe(Subscription{
		Types:    domain.AllEventTypes(),
		Callback: func(e domain.AvailabilityEvent) { all = append(all, e.ID) },
	})
	sink.Subscribe(Subscription{
		Types:    []domain.EventType{domain.EventSoldOut},
		Callback: func(e domain.AvailabilityEvent) { soldOutOnly = append(soldOutOnly, e.ID) },
	})
	two := 2
	unsubscribe := sink.Subscribe(Subscription{
		ItemID:   &two,
		Types:    []domain.EventType{domain.EventSoldOut, domain.EventLowStockAlert},
		Callback: func(e domain.AvailabilityEvent) { itemTwo = append(itemTwo, e.ID) },
	})

	sink.Publish(
		testEvent(1, domain.EventSoldOut),
		testEvent(2, domain.EventLowStockAlert),
		testEvent(2, domain.EventStatusChanged),
	)

	assert.Len(t, all, 3)
	assert.Equal(t, []string{"evt-1-sold_out"}, soldOutOnly)
	assert.Equal(t, []string{"evt-2-low_stock_alert"}, itemTwo)

	unsubscribe()
	sink.Publish(testEvent(2, domain.EventSoldOut))
	assert.Len(t, itemTwo, 1)
	assert.Len(t, soldOutOnly, 2)
}

func TestDispatch_BuildsEvent(t *testing.T) {
	clock := newFakeClock()
	sink := NewNotificationSink(clock.Now)

	e := sink.Dispatch(item(3, 100, 40, 0), domain.EventRestockSoon, "", "")

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, domain.StockStatusLowStock, e.NewStatus)
	assert.Equal(t, "Pin C will be restocked soon", e.Message)
	assert.Equal(t, clock.Now(), e.Timestamp)
	assert.Equal(t, []domain.AvailabilityEvent{e}, sink.Events())
}

func TestItemEventsAndEventsByType(t *testing.T) {
	sink := NewNotificationSink(nil)
	sink.Publish(
		testEvent(1, domain.EventSoldOut),
		testEvent(2, domain.EventSoldOut),
		testEvent(1, domain.EventBackInStock),
	)

	itemOne := sink.ItemEvents(1)
	require.Len(t, itemOne, 2)
	assert.Equal(t, domain.EventBackInStock, itemOne[0].Type, "newest first")

	assert.Len(t, sink.EventsByType(domain.EventSoldOut), 2)
	assert.Empty(t, sink.EventsByType(domain.EventRestockSoon))
}

func TestToaster_ShowsAndAutoDismisses(t *testing.T) {
	sink := NewNotificationSink(nil)
	toaster := NewToaster(sink, ToasterConfig{
		DismissAfter: 30 * time.Millisecond,
		Preferences:  domain.DefaultNotificationPreferences(),
	})
	defer toaster.Close()

	sink.Publish(testEvent(1, domain.EventSoldOut))
	require.Len(t, toaster.Visible(), 1)

	require.Eventually(t, func() bool { return len(toaster.Visible()) == 0 }, time.Second, 5*time.Millisecond)
	assert.Len(t, sink.Events(), 1, "history keeps dismissed events")
}

func TestToaster_ManualDismissAndLimit(t *testing.T) {
	sink := NewNotificationSink(nil)
	toaster := NewToaster(sink, ToasterConfig{
		MaxVisible:   2,
		DismissAfter: time.Hour,
		Preferences:  domain.DefaultNotificationPreferences(),
	})
	defer toaster.Close()

	for i := 1; i <= 6; i++ {
		sink.Publish(testEvent(i, domain.EventStatusChanged))
	}

	visible := toaster.Visible()
	require.Len(t, visible, 2)
	assert.Equal(t, "evt-6-status_changed", visible[0].ID)

	assert.True(t, toaster.Dismiss("evt-6-status_changed"))
	assert.False(t, toaster.Dismiss("evt-6-status_changed"))
	assert.Equal(t, "evt-5-status_changed", toaster.Visible()[0].ID)

	// only MaxVisible+2 toasts are kept, so the oldest queued ones are gone
	assert.True(t, toaster.Dismiss("evt-3-status_changed"))
	assert.False(t, toaster.Dismiss("evt-2-status_changed"))
}

func TestToaster_RespectsPreferences(t *testing.T) {
	sink := NewNotificationSink(nil)
	prefs := domain.DefaultNotificationPreferences()
	prefs.SoldOutAlerts = false
	toaster := NewToaster(sink, ToasterConfig{DismissAfter: time.Hour, Preferences: prefs})
	defer toaster.Close()

	sink.Publish(testEvent(1, domain.EventSoldOut))
	assert.Empty(t, toaster.Visible())

	prefs.SoldOutAlerts = true
	prefs.WatchedItems = []int{2}
	toaster.SetPreferences(prefs)
	sink.Publish(testEvent(1, domain.EventSoldOut), testEvent(2, domain.EventSoldOut))

	visible := toaster.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, 2, visible[0].Event.Item.ID)
}

func TestToaster_CloseStopsListening(t *testing.T) {
	sink := NewNotificationSink(nil)
	toaster := NewToaster(sink, ToasterConfig{Preferences: domain.DefaultNotificationPreferences()})

	toaster.Close()
	sink.Publish(testEvent(1, domain.EventSoldOut))

	assert.Empty(t, toaster.Visible())
}
