package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/crypto-pins/internal/core/domain"
)

var ErrDuplicateConfirmation = errors.New("confirmation already recorded")

const mysqlDuplicateEntry = 1062

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// LoadInventory returns the inventory of record ordered by item id.
func (m *MySQLAdapter) LoadInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT item_id, name, total_stock, available_stock, reserved_stock, updated_at
		FROM inventory ORDER BY item_id`)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	var items []domain.InventoryItem
	for rows.Next() {
		var item domain.InventoryItem
		if err := rows.Scan(&item.ID, &item.Name, &item.TotalStock, &item.AvailableStock, &item.ReservedStock, &item.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory: %w", err)
	}

	return items, nil
}

// RecordConfirmation appends to the ledger and moves the confirmed units out of the
// inventory of record in one transaction.
func (m *MySQLAdapter) RecordConfirmation(ctx context.Context, c domain.Confirmation) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO confirmations (id, item_id, quantity, confirmed_at)
		VALUES (?, ?, ?, ?)`,
		c.ID, c.ItemID, c.Quantity, c.ConfirmedAt,
	)
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return ErrDuplicateConfirmation
	}
	if err != nil {
		return fmt.Errorf("insert confirmation: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE inventory
		SET available_stock = GREATEST(available_stock - ?, 0),
			reserved_stock = GREATEST(reserved_stock - ?, 0),
			updated_at = ?
		WHERE item_id = ?`,
		c.Quantity, c.Quantity, c.ConfirmedAt, c.ItemID,
	)
	if err != nil {
		return fmt.Errorf("update inventory: %w", err)
	}

	return tx.Commit()
}

// SeedInventory upserts items into the inventory of record.
func (m *MySQLAdapter) SeedInventory(ctx context.Context, items []domain.InventoryItem) error {
	for _, item := range items {
		updated := item.LastUpdated
		if updated.IsZero() {
			updated = time.Now()
		}
		_, err := m.db.ExecContext(ctx, `
			INSERT INTO inventory (item_id, name, total_stock, available_stock, reserved_stock, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE name = VALUES(name), total_stock = VALUES(total_stock),
				available_stock = VALUES(available_stock), reserved_stock = VALUES(reserved_stock),
				updated_at = VALUES(updated_at)`,
			item.ID, item.Name, item.TotalStock, item.AvailableStock, item.ReservedStock, updated,
		)
		if err != nil {
			return fmt.Errorf("seed item %d: %w", item.ID, err)
		}
	}
	return nil
}

func (m *MySQLAdapter) CountConfirmations(ctx context.Context, itemID int) (int, error) {
	var count int
	err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM confirmations WHERE item_id = ?`, itemID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count confirmations: %w", err)
	}
	return count, nil
}
