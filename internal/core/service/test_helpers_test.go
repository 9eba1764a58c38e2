package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rl1809/crypto-pins/internal/core/domain"
)

// fakeClock is a manually advanced clock shared by the service tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T, items []domain.InventoryItem) (*InventoryStore, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	store := NewInventoryStore(items, InventoryStoreConfig{
		RefreshLatency: time.Millisecond,
		Rand:           rand.New(rand.NewPCG(42, 7)),
		Now:            clock.Now,
		Logger:         zerolog.Nop(),
	})
	return store, clock
}

func item(id, total, available, reserved int) domain.InventoryItem {
	return domain.InventoryItem{
		ID:             id,
		Name:           "Pin " + string(rune('A'+id-1)),
		TotalStock:     total,
		AvailableStock: available,
		ReservedStock:  reserved,
	}
}

// batchRecorder collects store batches.
type batchRecorder struct {
	mu      sync.Mutex
	batches []domain.InventoryBatch
}

func (r *batchRecorder) record(b domain.InventoryBatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, b)
}

func (r *batchRecorder) all() []domain.InventoryBatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.InventoryBatch(nil), r.batches...)
}

type fakeSource struct {
	items []domain.InventoryItem
	err   error
}

func (f *fakeSource) LoadInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

type fakeWallet struct {
	mu        sync.Mutex
	connected bool
	publicKey string
	signature string
	sendErr   error
	sent      []domain.TransferRequest
}

func (w *fakeWallet) Connected() bool {
	return w.connected
}

func (w *fakeWallet) PublicKey() string {
	return w.publicKey
}

func (w *fakeWallet) SendTransfer(ctx context.Context, req domain.TransferRequest) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sent = append(w.sent, req)
	if w.sendErr != nil {
		return "", w.sendErr
	}
	return w.signature, nil
}

type fakeChain struct {
	blockhash  domain.Blockhash
	hashErr    error
	confirmErr error
	balance    uint64
	balanceErr error
	confirmed  []string
}

func (c *fakeChain) LatestBlockhash(ctx context.Context) (domain.Blockhash, error) {
	return c.blockhash, c.hashErr
}

func (c *fakeChain) ConfirmTransaction(ctx context.Context, signature string, blockhash domain.Blockhash) error {
	if c.confirmErr != nil {
		return c.confirmErr
	}
	c.confirmed = append(c.confirmed, signature)
	return nil
}

func (c *fakeChain) Balance(ctx context.Context, publicKey string) (uint64, error) {
	return c.balance, c.balanceErr
}

type fakeDistributor struct {
	reference string
	err       error
	block     chan struct{}
}

func (d *fakeDistributor) Distribute(ctx context.Context, wallet string, amount decimal.Decimal) (string, error) {
	if d.block != nil {
		select {
		case <-d.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if d.err != nil {
		return "", d.err
	}
	return d.reference, nil
}

var errBoom = errors.New("boom")
