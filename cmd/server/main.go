package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/rl1809/crypto-pins/internal/adapter/chain"
	"github.com/rl1809/crypto-pins/internal/adapter/handler"
	"github.com/rl1809/crypto-pins/internal/adapter/storage"
	"github.com/rl1809/crypto-pins/internal/core/domain"
	"github.com/rl1809/crypto-pins/internal/core/service"
	"github.com/rl1809/crypto-pins/internal/port"
	"github.com/rl1809/crypto-pins/pkg/config"
	"github.com/rl1809/crypto-pins/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Name: cfg.App.Name})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL is the inventory of record when configured
	var (
		db           *sql.DB
		mysqlAdapter *storage.MySQLAdapter
		source       port.SnapshotSource
		ledger       port.DatabaseRepository
	)
	if cfg.MySQL.DSN != "" {
		db, err = sql.Open("mysql", cfg.MySQL.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open mysql")
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ping mysql")
		}
		mysqlAdapter = storage.NewMySQLAdapter(db)
		source, ledger = mysqlAdapter, mysqlAdapter
		log.Info().Msg("connected to mysql")
	}

	// Redis mirrors the counters and carries the external update feed
	var (
		rdb          *redis.Client
		redisAdapter *storage.RedisAdapter
		cache        port.CacheRepository
	)
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("failed to connect redis")
		}
		redisAdapter = storage.NewRedisAdapter(rdb)
		cache = redisAdapter
		log.Info().Msg("connected to redis")
	}

	seed := loadSeed(ctx, log, mysqlAdapter)

	if redisAdapter != nil {
		// versions restart at zero with the store, so stale mirrors would win
		ids := make([]int, len(seed))
		for i, item := range seed {
			ids[i] = item.ID
		}
		if err := redisAdapter.Forget(ctx, ids...); err != nil {
			log.Fatal().Err(err).Msg("failed to reset stock mirror")
		}
	}

	// Inventory pipeline
	store := service.NewInventoryStore(seed, service.InventoryStoreConfig{
		Source:         source,
		RefreshLatency: cfg.Inventory.RefreshLatency,
		Logger:         log.Component("inventory"),
	})
	sink := service.NewNotificationSink(nil)
	availability := service.NewAvailabilityService(
		store,
		service.NewAvailabilityDiffer(cfg.Inventory.LowStockThreshold, nil),
		sink,
		log.Component("availability"),
	)
	toaster := service.NewToaster(sink, service.ToasterConfig{
		MaxVisible:   cfg.Notifications.MaxVisible,
		DismissAfter: cfg.Notifications.DismissAfter,
		Preferences:  domain.DefaultNotificationPreferences(),
	})

	worker := service.NewSyncWorker(cache, ledger, cfg.Sync.QueueSize, log.Component("sync"))
	worker.Start(cfg.Sync.Workers)
	store.Subscribe(worker.Enqueue)

	go availability.Run(ctx, cfg.Inventory.TickInterval)
	if redisAdapter != nil {
		go func() {
			if err := availability.ConsumeFeed(ctx, redisAdapter); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("update feed stopped")
			}
		}()
	}

	// Wallet and rewards
	rpcClient := chain.NewRPCClient(cfg.Solana.RPCURL)
	wallet, err := chain.NewKeypairWallet(rpcClient, cfg.Solana.PrivateKey)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid wallet key")
	}
	if cfg.Solana.PrivateKey != "" {
		if err := wallet.Connect(); err != nil {
			log.Fatal().Err(err).Msg("failed to connect wallet")
		}
		log.Info().Str("wallet", service.TruncateAddress(wallet.PublicKey())).Msg("wallet connected")
	}

	prompt := &service.ConnectPrompt{}
	earnings := service.NewEarningsTracker(service.EarningsTrackerConfig{})
	go earnings.Run(ctx, cfg.Rewards.EarningsTickInterval)

	claims := service.NewClaimService(wallet, prompt,
		service.SimulatedDistributor{Delay: cfg.Rewards.ClaimSettleDelay},
		earnings, log.Component("claims"))
	purchases := service.NewPurchaseService(wallet, rpcClient, prompt,
		cfg.Solana.TreasuryWallet, domain.SeedCollections(), log.Component("purchases"))
	session := service.NewWalletSession(wallet, rpcClient, prompt, log.Component("wallet"))

	// gRPC server
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(handler.LoggingInterceptor(log.Component("grpc"))))
	handler.RegisterInventoryServer(grpcServer, handler.NewGRPCHandler(availability, log.Component("grpc")))

	lis, err := net.Listen("tcp", cfg.GRPC.Addr())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to listen")
	}
	go func() {
		log.Info().Str("addr", cfg.GRPC.Addr()).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.Error().Err(err).Msg("gRPC server error")
		}
	}()

	// HTTP server
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	app.Use(recover.New())

	httpHandler := handler.NewHTTPHandler(handler.HTTPDeps{
		Availability: availability,
		Toaster:      toaster,
		Earnings:     earnings,
		Claims:       claims,
		Purchases:    purchases,
		Wallet:       session,
		Prompt:       prompt,
		Connector:    wallet,
		Logger:       log.Component("http"),
	})
	httpHandler.Register(app)

	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr()).Msg("HTTP server listening")
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown")
	}
	log.Info().Msg("HTTP server stopped")

	grpcServer.GracefulStop()
	log.Info().Msg("gRPC server stopped")

	// Stop the tickers and the feed before draining the sync queue
	cancel()
	availability.Close()
	toaster.Close()
	worker.Close()
	log.Info().Msg("workers stopped")

	if rdb != nil {
		rdb.Close()
	}
	if db != nil {
		db.Close()
	}
	log.Info().Msg("connections closed")
}

// loadSeed reads the inventory of record, seeding an empty database with the
// built-in catalogue.
func loadSeed(ctx context.Context, log *logger.Logger, db *storage.MySQLAdapter) []domain.InventoryItem {
	seed := domain.SeedInventory(time.Now())
	if db == nil {
		return seed
	}

	items, err := db.LoadInventory(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load inventory")
	}
	if len(items) > 0 {
		log.Info().Int("items", len(items)).Msg("loaded inventory")
		return items
	}

	if err := db.SeedInventory(ctx, seed); err != nil {
		log.Fatal().Err(err).Msg("failed to seed inventory")
	}
	log.Info().Int("items", len(seed)).Msg("seeded inventory")
	return seed
}
