package port

import (
	"context"

	"github.com/rl1809/crypto-pins/internal/core/domain"
)

// SnapshotSource is the inventory of record used for full refreshes.
type SnapshotSource interface {
	LoadInventory(ctx context.Context) ([]domain.InventoryItem, error)
}

type DatabaseRepository interface {
	SnapshotSource

	// RecordConfirmation appends a confirmed purchase to the ledger
	RecordConfirmation(ctx context.Context, confirmation domain.Confirmation) error
}
