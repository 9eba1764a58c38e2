package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rl1809/crypto-pins/internal/core/domain"
	"github.com/rl1809/crypto-pins/internal/port"
)

const defaultRefreshLatency = time.Second

// UpdateListener receives copies of the items changed by one store mutation.
type UpdateListener func(domain.InventoryBatch)

type InventoryStoreConfig struct {
	// Source is the inventory of record for Refresh. When nil, Refresh only simulates
	// the round trip.
	Source         port.SnapshotSource
	RefreshLatency time.Duration
	Rand           *rand.Rand
	Now            func() time.Time
	Logger         zerolog.Logger
}

// InventoryStore owns the stock counters. Items live in an arena indexed by id so
// iteration order stays stable. All writes go through the store's methods, serialized
// by mu; listeners run after mu is released and must tolerate concurrent calls.
type InventoryStore struct {
	mu         sync.Mutex
	items      []domain.InventoryItem
	index      map[int]int
	version    uint64
	autoUpdate bool
	lastSync   time.Time

	listenersMu sync.RWMutex
	listeners   []listenerEntry
	nextID      uint64

	source         port.SnapshotSource
	refreshLatency time.Duration
	rng            *rand.Rand
	now            func() time.Time
	log            zerolog.Logger
}

type listenerEntry struct {
	id uint64
	fn UpdateListener
}

func NewInventoryStore(seed []domain.InventoryItem, cfg InventoryStoreConfig) *InventoryStore {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if cfg.RefreshLatency <= 0 {
		cfg.RefreshLatency = defaultRefreshLatency
	}

	s := &InventoryStore{
		items:          make([]domain.InventoryItem, 0, len(seed)),
		index:          make(map[int]int, len(seed)),
		autoUpdate:     true,
		source:         cfg.Source,
		refreshLatency: cfg.RefreshLatency,
		rng:            cfg.Rand,
		now:            cfg.Now,
		log:            cfg.Logger,
	}

	for _, item := range seed {
		if _, exists := s.index[item.ID]; exists {
			continue
		}
		s.version++
		item.Version = s.version
		s.index[item.ID] = len(s.items)
		s.items = append(s.items, item)
	}
	s.lastSync = cfg.Now()

	return s
}

// Subscribe registers l for every future batch and returns a function removing it.
func (s *InventoryStore) Subscribe(l UpdateListener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: l})

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		s.listeners = slices.DeleteFunc(s.listeners, func(e listenerEntry) bool {
			return e.id == id
		})
	}
}

// Reserve holds quantity units against sellable stock.
func (s *InventoryStore) Reserve(id, quantity int) bool {
	return s.mutate(id, quantity, domain.UpdateCauseReserve, func(item *domain.InventoryItem) bool {
		if item.Sellable() < quantity {
			return false
		}
		item.ReservedStock += quantity
		return true
	})
}

func (s *InventoryStore) Release(id, quantity int) bool {
	return s.mutate(id, quantity, domain.UpdateCauseRelease, func(item *domain.InventoryItem) bool {
		if item.ReservedStock < quantity {
			return false
		}
		item.ReservedStock -= quantity
		return true
	})
}

// Confirm converts a reservation into a permanent depletion.
func (s *InventoryStore) Confirm(id, quantity int) bool {
	return s.mutate(id, quantity, domain.UpdateCauseConfirm, func(item *domain.InventoryItem) bool {
		if item.ReservedStock < quantity {
			return false
		}
		item.AvailableStock -= quantity
		item.ReservedStock -= quantity
		return true
	})
}

func (s *InventoryStore) mutate(id, quantity int, cause domain.UpdateCause, apply func(*domain.InventoryItem) bool) bool {
	if quantity <= 0 {
		return false
	}

	s.mu.Lock()
	idx, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false
	}

	item := &s.items[idx]
	if !apply(item) {
		s.mu.Unlock()
		return false
	}

	now := s.now()
	s.touch(item, now)
	batch := domain.InventoryBatch{
		Cause:    cause,
		Items:    []domain.InventoryItem{*item},
		Quantity: quantity,
		At:       now,
	}
	s.mu.Unlock()

	s.publish(batch)
	return true
}

// Tick simulates the external feed: one or two random items drift by -3..+1.
// Items that are already empty are skipped.
func (s *InventoryStore) Tick() {
	s.mu.Lock()
	if len(s.items) == 0 {
		s.mu.Unlock()
		return
	}

	now := s.now()
	var touched []int
	for range s.rng.IntN(2) + 1 {
		idx := s.rng.IntN(len(s.items))
		item := &s.items[idx]
		if item.AvailableStock <= 0 {
			continue
		}

		// drift never eats into held units
		delta := s.rng.IntN(5) - 3
		item.AvailableStock = clamp(item.AvailableStock+delta, item.ReservedStock, item.TotalStock)
		s.touch(item, now)
		if !slices.Contains(touched, idx) {
			touched = append(touched, idx)
		}
	}
	s.lastSync = now
	batch := s.batchOf(domain.UpdateCauseTick, touched, now)
	s.mu.Unlock()

	if len(batch.Items) > 0 {
		s.publish(batch)
	}
}

// Apply folds a batch of externally pushed updates into the store and returns how many
// were applied. Unknown items are ignored.
func (s *InventoryStore) Apply(updates []domain.StockUpdate) int {
	s.mu.Lock()
	now := s.now()
	var touched []int
	for _, u := range updates {
		idx, ok := s.index[u.ItemID]
		if !ok {
			continue
		}

		item := &s.items[idx]
		if u.TotalStock != nil {
			item.TotalStock = max(0, *u.TotalStock)
		}
		if u.AvailableStock != nil {
			item.AvailableStock = *u.AvailableStock
		}
		if u.ReservedStock != nil {
			item.ReservedStock = max(0, *u.ReservedStock)
		}
		item.AvailableStock = clamp(item.AvailableStock, 0, item.TotalStock)
		s.touch(item, now)

		if !slices.Contains(touched, idx) {
			touched = append(touched, idx)
		}
	}
	if len(touched) > 0 {
		s.lastSync = now
	}
	batch := s.batchOf(domain.UpdateCauseFeed, touched, now)
	s.mu.Unlock()

	if len(batch.Items) > 0 {
		s.publish(batch)
	}
	return len(touched)
}

// Refresh reloads the full snapshot and republishes every item.
func (s *InventoryStore) Refresh(ctx context.Context) error {
	var record []domain.InventoryItem
	if s.source != nil {
		items, err := s.source.LoadInventory(ctx)
		if err != nil {
			return fmt.Errorf("load inventory: %w", err)
		}
		record = items
	} else {
		timer := time.NewTimer(s.refreshLatency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	// Holds only live in memory, so a known item keeps its reservations across a reload.
	s.mu.Lock()
	for _, r := range record {
		idx, ok := s.index[r.ID]
		if !ok {
			s.index[r.ID] = len(s.items)
			s.items = append(s.items, r)
			idx = len(s.items) - 1
		} else {
			item := &s.items[idx]
			if r.Name != "" {
				item.Name = r.Name
			}
			item.TotalStock = r.TotalStock
			item.AvailableStock = r.AvailableStock
		}

		item := &s.items[idx]
		item.TotalStock = max(0, item.TotalStock)
		item.AvailableStock = clamp(item.AvailableStock, 0, item.TotalStock)
		item.ReservedStock = clamp(item.ReservedStock, 0, item.AvailableStock)
	}

	now := s.now()
	all := make([]int, len(s.items))
	for i := range s.items {
		s.touch(&s.items[i], now)
		all[i] = i
	}
	s.lastSync = now
	batch := s.batchOf(domain.UpdateCauseRefresh, all, now)
	s.mu.Unlock()

	s.log.Info().Int("items", len(batch.Items)).Bool("from_source", s.source != nil).Msg("inventory refreshed")
	s.publish(batch)
	return nil
}

func (s *InventoryStore) SetAutoUpdate(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoUpdate = enabled
}

func (s *InventoryStore) AutoUpdate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoUpdate
}

// Run ticks every interval while auto update is enabled, until ctx is done.
func (s *InventoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.AutoUpdate() {
				s.Tick()
			}
		}
	}
}

func (s *InventoryStore) Get(id int) (domain.InventoryItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.index[id]
	if !ok {
		return domain.InventoryItem{}, false
	}
	return s.items[idx], true
}

func (s *InventoryStore) Status(id int) (domain.StockStatus, bool) {
	item, ok := s.Get(id)
	if !ok {
		return "", false
	}
	return item.Status(), true
}

// StockPercentage returns 0 for unknown items.
func (s *InventoryStore) StockPercentage(id int) int {
	item, ok := s.Get(id)
	if !ok {
		return 0
	}
	return item.StockPercentage()
}

func (s *InventoryStore) Items() []domain.InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

func (s *InventoryStore) LowStockItems() []domain.InventoryItem {
	var low []domain.InventoryItem
	for _, item := range s.Items() {
		status := item.Status()
		if status == domain.StockStatusLowStock || status == domain.StockStatusOutOfStock {
			low = append(low, item)
		}
	}
	return low
}

func (s *InventoryStore) LastSync() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}

// touch must be called with mu held.
func (s *InventoryStore) touch(item *domain.InventoryItem, now time.Time) {
	s.version++
	item.Version = s.version
	item.LastUpdated = now
}

func (s *InventoryStore) batchOf(cause domain.UpdateCause, indexes []int, now time.Time) domain.InventoryBatch {
	items := make([]domain.InventoryItem, 0, len(indexes))
	for _, idx := range indexes {
		items = append(items, s.items[idx])
	}
	return domain.InventoryBatch{Cause: cause, Items: items, At: now}
}

func (s *InventoryStore) publish(batch domain.InventoryBatch) {
	s.listenersMu.RLock()
	listeners := slices.Clone(s.listeners)
	s.listenersMu.RUnlock()

	for _, l := range listeners {
		l.fn(batch)
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
