package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, 50051, cfg.GRPC.Port)
	assert.Equal(t, DefaultSolanaRPC, cfg.Solana.RPCURL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 5*time.Second, cfg.Inventory.TickInterval)
	assert.Equal(t, 2*time.Second, cfg.Rewards.EarningsTickInterval)
	assert.Equal(t, 1024, cfg.Sync.QueueSize)
	assert.Equal(t, 50, cfg.Inventory.LowStockThreshold)
	assert.Equal(t, 5*time.Second, cfg.Notifications.DismissAfter)
	assert.Equal(t, 3, cfg.Notifications.MaxVisible)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("NEXT_PUBLIC_SOLANA_RPC_URL", "https://api.devnet.solana.com")
	t.Setenv("INVENTORY_TICK_INTERVAL", "750ms")
	t.Setenv("NOTIFICATION_DISMISS_AFTER", "2000")
	t.Setenv("LOW_STOCK_THRESHOLD", "20")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "https://api.devnet.solana.com", cfg.Solana.RPCURL)
	assert.Equal(t, 750*time.Millisecond, cfg.Inventory.TickInterval)
	assert.Equal(t, 2*time.Second, cfg.Notifications.DismissAfter)
	assert.Equal(t, 20, cfg.Inventory.LowStockThreshold)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("INVENTORY_TICK_INTERVAL", "0")

	_, err := Load()
	assert.ErrorContains(t, err, "INVENTORY_TICK_INTERVAL")
}
