package service

import (
	"cmp"
	"context"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/crypto-pins/internal/core/domain"
)

const (
	maxRewardTransactions     = 20
	initialRewardTransactions = 8
	allCollections            = "All Collections"
)

type EarningsTrackerConfig struct {
	Rand *rand.Rand
	Now  func() time.Time
}

type EarningsSnapshot struct {
	Earnings     domain.Earnings            `json:"earnings"`
	Collections  []domain.CollectionEarning `json:"collectionEarnings"`
	Transactions []domain.RewardTransaction `json:"transactions"`
	Live         bool                       `json:"isLive"`
}

// EarningsTracker simulates reward accrual for the connected collector.
type EarningsTracker struct {
	mu           sync.Mutex
	earnings     domain.Earnings
	collections  []domain.CollectionEarning
	transactions []domain.RewardTransaction
	live         bool
	rng          *rand.Rand
	now          func() time.Time
}

func NewEarningsTracker(cfg EarningsTrackerConfig) *EarningsTracker {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 1))
	}

	now := cfg.Now()
	t := &EarningsTracker{
		earnings:    domain.SeedEarnings(now),
		collections: domain.SeedCollectionEarnings(),
		live:        true,
		rng:         cfg.Rand,
		now:         cfg.Now,
	}

	for i := range initialRewardTransactions {
		txType := domain.RewardTransactionClaim
		if t.rng.Float64() > 0.3 {
			txType = domain.RewardTransactionReward
		}
		age := time.Duration(float64(i) * float64(time.Hour) * t.rng.Float64() * 12)
		t.transactions = append(t.transactions, domain.RewardTransaction{
			ID:         uuid.NewString(),
			Type:       txType,
			Amount:     decimal.NewFromFloat(t.rng.Float64()*0.5 + 0.1).Round(4),
			Timestamp:  now.Add(-age),
			Collection: t.randomCollection(),
		})
	}
	slices.SortFunc(t.transactions, func(a, b domain.RewardTransaction) int {
		return cmp.Compare(b.Timestamp.UnixNano(), a.Timestamp.UnixNano())
	})

	return t
}

// Tick accrues one random reward increment across the totals and collections.
func (t *EarningsTracker) Tick() {
	t.mu.Lock()
	defer t.mu.Unlock()

	increment := decimal.NewFromFloat(t.rng.Float64()*0.005 + 0.001).Round(6)
	t.earnings.TotalEarnings = t.earnings.TotalEarnings.Add(increment).Round(4)
	t.earnings.PendingRewards = t.earnings.PendingRewards.Add(increment).Round(4)

	for i := range t.collections {
		c := &t.collections[i]
		share := increment.Mul(c.SharePercentage)
		c.PendingAmount = c.PendingAmount.Add(share).Round(4)
		c.TotalEarned = c.TotalEarned.Add(share).Round(4)
	}

	if t.rng.Float64() > 0.7 {
		t.prepend(domain.RewardTransaction{
			ID:         uuid.NewString(),
			Type:       domain.RewardTransactionReward,
			Amount:     decimal.NewFromFloat(t.rng.Float64()*0.1 + 0.01).Round(4),
			Timestamp:  t.now(),
			Collection: t.randomCollection(),
		})
	}
}

// RecordClaim moves amount from pending to claimed.
func (t *EarningsTracker) RecordClaim(amount decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.prepend(domain.RewardTransaction{
		ID:         uuid.NewString(),
		Type:       domain.RewardTransactionClaim,
		Amount:     amount,
		Timestamp:  now,
		Collection: allCollections,
	})

	t.earnings.PendingRewards = decimal.Zero
	t.earnings.ClaimedRewards = t.earnings.ClaimedRewards.Add(amount).Round(4)
	t.earnings.LastClaimAt = now
	for i := range t.collections {
		t.collections[i].PendingAmount = decimal.Zero
	}
}

func (t *EarningsTracker) Pending() decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.earnings.PendingRewards
}

func (t *EarningsTracker) SetLive(live bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.live = live
}

func (t *EarningsTracker) Live() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live
}

func (t *EarningsTracker) Snapshot() EarningsSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return EarningsSnapshot{
		Earnings:     t.earnings,
		Collections:  slices.Clone(t.collections),
		Transactions: slices.Clone(t.transactions),
		Live:         t.live,
	}
}

// Run ticks every interval while live, until ctx is done.
func (t *EarningsTracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if t.Live() {
				t.Tick()
			}
		}
	}
}

// prepend must be called with mu held.
func (t *EarningsTracker) prepend(tx domain.RewardTransaction) {
	t.transactions = append([]domain.RewardTransaction{tx}, t.transactions...)
	if len(t.transactions) > maxRewardTransactions {
		t.transactions = t.transactions[:maxRewardTransactions]
	}
}

func (t *EarningsTracker) randomCollection() string {
	return t.collections[t.rng.IntN(len(t.collections))].Name
}
