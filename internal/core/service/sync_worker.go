package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rl1809/crypto-pins/internal/core/domain"
	"github.com/rl1809/crypto-pins/internal/port"
)

const syncTimeout = 5 * time.Second

// SyncWorker mirrors store batches to the cache and records confirmations in the
// database. Either side may be nil.
type SyncWorker struct {
	cache port.CacheRepository
	db    port.DatabaseRepository
	log   zerolog.Logger

	mu     sync.RWMutex
	queue  chan domain.InventoryBatch
	closed bool
	wg     sync.WaitGroup
}

func NewSyncWorker(cache port.CacheRepository, db port.DatabaseRepository, queueSize int, log zerolog.Logger) *SyncWorker {
	return &SyncWorker{
		cache: cache,
		db:    db,
		log:   log,
		queue: make(chan domain.InventoryBatch, queueSize),
	}
}

// Enqueue never blocks the store: a full queue drops the batch.
func (w *SyncWorker) Enqueue(batch domain.InventoryBatch) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return
	}

	select {
	case w.queue <- batch:
	default:
		w.log.Warn().Str("cause", string(batch.Cause)).Int("items", len(batch.Items)).Msg("sync queue full, batch dropped")
	}
}

func (w *SyncWorker) Start(workers int) {
	for i := 0; i < workers; i++ {
		w.wg.Add(1)
		go func(id int) {
			defer w.wg.Done()
			w.loop(id)
		}(i)
	}
	w.log.Info().Int("workers", workers).Msg("sync workers started")
}

func (w *SyncWorker) loop(id int) {
	for batch := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		w.handle(ctx, id, batch)
		cancel()
	}
}

func (w *SyncWorker) handle(ctx context.Context, id int, batch domain.InventoryBatch) {
	if w.cache != nil {
		for _, item := range batch.Items {
			if err := w.cache.MirrorItem(ctx, item); err != nil {
				w.log.Error().Err(err).Int("worker", id).Int("item_id", item.ID).Msg("mirror item")
			}
		}
	}

	if w.db == nil || batch.Cause != domain.UpdateCauseConfirm {
		return
	}

	for _, item := range batch.Items {
		confirmation := domain.Confirmation{
			ID:          uuid.NewString(),
			ItemID:      item.ID,
			Quantity:    batch.Quantity,
			ConfirmedAt: batch.At,
		}
		if err := w.db.RecordConfirmation(ctx, confirmation); err != nil {
			w.log.Error().Err(err).Int("worker", id).Str("confirmation_id", confirmation.ID).Msg("CRITICAL: confirmation not recorded")
			continue
		}
		w.log.Debug().Int("worker", id).Str("confirmation_id", confirmation.ID).Msg("confirmation recorded")
	}
}

// Close stops accepting batches, drains the queue and waits for the workers.
func (w *SyncWorker) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	w.wg.Wait()
}
