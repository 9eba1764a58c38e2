package port

import (
	"context"

	"github.com/rl1809/crypto-pins/internal/core/domain"
)

type CacheRepository interface {
	// MirrorItem writes the item counters to the cache, ignoring versions older than the cached one
	MirrorItem(ctx context.Context, item domain.InventoryItem) error
}

// UpdateFeed is an external push source of stock updates.
type UpdateFeed interface {
	// Subscribe delivers update batches to handle until ctx is done
	Subscribe(ctx context.Context, handle func([]domain.StockUpdate)) error
}
