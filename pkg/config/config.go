package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const DefaultSolanaRPC = "https://api.mainnet-beta.solana.com"

type Config struct {
	App           AppConfig
	HTTP          ListenConfig
	GRPC          ListenConfig
	Redis         RedisConfig
	MySQL         MySQLConfig
	Solana        SolanaConfig
	Inventory     InventoryConfig
	Notifications NotificationConfig
	Rewards       RewardsConfig
	Sync          SyncConfig
}

type AppConfig struct {
	Env      string // development, production
	Name     string
	LogLevel string
}

type ListenConfig struct {
	Host string
	Port int
}

func (c ListenConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig is disabled when Addr is empty.
type RedisConfig struct {
	Addr string
}

// MySQLConfig is disabled when DSN is empty.
type MySQLConfig struct {
	DSN string
}

type SolanaConfig struct {
	RPCURL         string
	TreasuryWallet string
	PrivateKey     string // base58; empty leaves the wallet disconnected
}

type InventoryConfig struct {
	TickInterval      time.Duration
	RefreshLatency    time.Duration
	LowStockThreshold int
}

type NotificationConfig struct {
	DismissAfter time.Duration
	MaxVisible   int
}

type RewardsConfig struct {
	ClaimSettleDelay     time.Duration
	EarningsTickInterval time.Duration
}

type SyncConfig struct {
	Workers   int
	QueueSize int
}

// Load reads .env or config.env from the working directory when present; environment
// variables win.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.SetConfigName(".env")
	if err := v.ReadInConfig(); err != nil {
		v.SetConfigName("config")
		_ = v.ReadInConfig()
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "crypto-pins"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		HTTP: ListenConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		GRPC: ListenConfig{
			Host: getString(v, "GRPC_HOST", "0.0.0.0"),
			Port: getInt(v, "GRPC_PORT", 50051),
		},
		Redis: RedisConfig{
			Addr: getString(v, "REDIS_ADDR", ""),
		},
		MySQL: MySQLConfig{
			DSN: getString(v, "MYSQL_DSN", ""),
		},
		Solana: SolanaConfig{
			RPCURL:         getString(v, "NEXT_PUBLIC_SOLANA_RPC_URL", DefaultSolanaRPC),
			TreasuryWallet: getString(v, "TREASURY_WALLET", ""),
			PrivateKey:     getString(v, "WALLET_PRIVATE_KEY", ""),
		},
		Inventory: InventoryConfig{
			TickInterval:      getDuration(v, "INVENTORY_TICK_INTERVAL", 5*time.Second),
			RefreshLatency:    getDuration(v, "INVENTORY_REFRESH_LATENCY", time.Second),
			LowStockThreshold: getInt(v, "LOW_STOCK_THRESHOLD", 50),
		},
		Notifications: NotificationConfig{
			DismissAfter: getDuration(v, "NOTIFICATION_DISMISS_AFTER", 5*time.Second),
			MaxVisible:   getInt(v, "NOTIFICATION_MAX_VISIBLE", 3),
		},
		Rewards: RewardsConfig{
			ClaimSettleDelay:     getDuration(v, "CLAIM_SETTLE_DELAY", 2*time.Second),
			EarningsTickInterval: getDuration(v, "EARNINGS_TICK_INTERVAL", 2*time.Second),
		},
		Sync: SyncConfig{
			Workers:   getInt(v, "SYNC_WORKERS", 4),
			QueueSize: getInt(v, "SYNC_QUEUE_SIZE", 1024),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Inventory.TickInterval <= 0:
		return fmt.Errorf("INVENTORY_TICK_INTERVAL must be positive, got %s", c.Inventory.TickInterval)
	case c.Rewards.EarningsTickInterval <= 0:
		return fmt.Errorf("EARNINGS_TICK_INTERVAL must be positive, got %s", c.Rewards.EarningsTickInterval)
	case c.Inventory.LowStockThreshold <= 0:
		return fmt.Errorf("LOW_STOCK_THRESHOLD must be positive, got %d", c.Inventory.LowStockThreshold)
	case c.Sync.Workers <= 0 || c.Sync.QueueSize <= 0:
		return fmt.Errorf("SYNC_WORKERS and SYNC_QUEUE_SIZE must be positive")
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if !v.IsSet(key) {
		return def
	}
	if s, ok := v.Get(key).(string); ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return def
		}
		return n
	}
	return v.GetInt(key)
}

// getDuration accepts Go durations ("3s") or bare milliseconds ("3000").
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	s := strings.TrimSpace(v.GetString(key))
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
