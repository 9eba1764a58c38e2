package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/rl1809/crypto-pins/internal/core/domain"
)

const inventorySchema = `
CREATE TABLE IF NOT EXISTS inventory (
	item_id INT PRIMARY KEY,
	name VARCHAR(128) NOT NULL,
	total_stock INT NOT NULL,
	available_stock INT NOT NULL,
	reserved_stock INT NOT NULL DEFAULT 0,
	updated_at DATETIME(3) NOT NULL
)`

const confirmationsSchema = `
CREATE TABLE IF NOT EXISTS confirmations (
	id CHAR(36) PRIMARY KEY,
	item_id INT NOT NULL,
	quantity INT NOT NULL,
	confirmed_at DATETIME(3) NOT NULL
)`

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/cryptopins?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	for _, stmt := range []string{inventorySchema, confirmationsSchema} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	return db
}

func TestSeedAndLoadInventory(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	// Setup
	db.ExecContext(ctx, `DELETE FROM inventory WHERE item_id IN (801, 802)`)
	err := adapter.SeedInventory(ctx, []domain.InventoryItem{
		{ID: 802, Name: "Second", TotalStock: 10, AvailableStock: 4},
		{ID: 801, Name: "First", TotalStock: 100, AvailableStock: 60, ReservedStock: 5},
	})
	if err != nil {
		t.Fatalf("SeedInventory failed: %v", err)
	}

	items, err := adapter.LoadInventory(ctx)
	if err != nil {
		t.Fatalf("LoadInventory failed: %v", err)
	}

	var found []domain.InventoryItem
	for _, item := range items {
		if item.ID == 801 || item.ID == 802 {
			found = append(found, item)
		}
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 seeded items, got %d", len(found))
	}
	if found[0].ID != 801 {
		t.Errorf("expected items ordered by id, got %d first", found[0].ID)
	}
	if found[0].Name != "First" || found[0].AvailableStock != 60 || found[0].ReservedStock != 5 {
		t.Errorf("unexpected item: %+v", found[0])
	}

	// Cleanup
	db.ExecContext(ctx, `DELETE FROM inventory WHERE item_id IN (801, 802)`)
}

func TestRecordConfirmation_Success(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	// Setup
	db.ExecContext(ctx, `DELETE FROM confirmations WHERE item_id = 803`)
	adapter.SeedInventory(ctx, []domain.InventoryItem{{ID: 803, Name: "Ledger", TotalStock: 50, AvailableStock: 20, ReservedStock: 4}})

	confirmation := domain.Confirmation{
		ID:          uuid.NewString(),
		ItemID:      803,
		Quantity:    3,
		ConfirmedAt: time.Now(),
	}

	if err := adapter.RecordConfirmation(ctx, confirmation); err != nil {
		t.Fatalf("RecordConfirmation failed: %v", err)
	}

	// Verify ledger row
	count, err := adapter.CountConfirmations(ctx, 803)
	if err != nil {
		t.Fatalf("CountConfirmations failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 confirmation, got %d", count)
	}

	// Verify inventory of record
	var available, reserved int
	db.QueryRowContext(ctx, `SELECT available_stock, reserved_stock FROM inventory WHERE item_id = 803`).Scan(&available, &reserved)
	if available != 17 || reserved != 1 {
		t.Errorf("expected 17/1, got %d/%d", available, reserved)
	}

	// Replaying the same confirmation is rejected
	err = adapter.RecordConfirmation(ctx, confirmation)
	if !errors.Is(err, ErrDuplicateConfirmation) {
		t.Errorf("expected ErrDuplicateConfirmation, got: %v", err)
	}
	count, _ = adapter.CountConfirmations(ctx, 803)
	if count != 1 {
		t.Errorf("expected 1 confirmation after replay, got %d", count)
	}

	// Cleanup
	db.ExecContext(ctx, `DELETE FROM confirmations WHERE item_id = 803`)
	db.ExecContext(ctx, `DELETE FROM inventory WHERE item_id = 803`)
}
