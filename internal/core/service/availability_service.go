package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rl1809/crypto-pins/internal/core/domain"
	"github.com/rl1809/crypto-pins/internal/port"
)

// AvailabilityService is the shared inventory and notification state. Construct one
// per process and pass it to every consumer.
type AvailabilityService struct {
	store       *InventoryStore
	differ      *AvailabilityDiffer
	sink        *NotificationSink
	log         zerolog.Logger
	unsubscribe func()
}

func NewAvailabilityService(store *InventoryStore, differ *AvailabilityDiffer, sink *NotificationSink, log zerolog.Logger) *AvailabilityService {
	s := &AvailabilityService{
		store:  store,
		differ: differ,
		sink:   sink,
		log:    log,
	}

	differ.Prime(store.Items())
	s.unsubscribe = store.Subscribe(s.onUpdate)
	return s
}

func (s *AvailabilityService) onUpdate(batch domain.InventoryBatch) {
	events := s.differ.Diff(batch.Items)
	if len(events) == 0 {
		return
	}

	for _, e := range events {
		s.log.Debug().
			Str("type", string(e.Type)).
			Int("item_id", e.Item.ID).
			Str("cause", string(batch.Cause)).
			Msg(e.Message)
	}
	s.sink.Publish(events...)
}

func (s *AvailabilityService) Store() *InventoryStore {
	return s.store
}

func (s *AvailabilityService) Sink() *NotificationSink {
	return s.sink
}

// Run drives the simulated feed until ctx is done.
func (s *AvailabilityService) Run(ctx context.Context, tickInterval time.Duration) {
	s.log.Info().Dur("interval", tickInterval).Msg("inventory ticker started")
	s.store.Run(ctx, tickInterval)
	s.log.Info().Msg("inventory ticker stopped")
}

// ConsumeFeed applies externally pushed updates until ctx is done.
func (s *AvailabilityService) ConsumeFeed(ctx context.Context, feed port.UpdateFeed) error {
	return feed.Subscribe(ctx, func(updates []domain.StockUpdate) {
		applied := s.store.Apply(updates)
		s.log.Debug().Int("received", len(updates)).Int("applied", applied).Msg("stock updates applied")
	})
}

func (s *AvailabilityService) Close() {
	s.unsubscribe()
}
