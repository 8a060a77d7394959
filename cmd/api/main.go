package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"walletbridge/config"
	httpHandler "walletbridge/internal/adapter/http/handler"
	pgStorage "walletbridge/internal/adapter/storage/postgres"
	redisStorage "walletbridge/internal/adapter/storage/redis"
	"walletbridge/internal/chain/evm"
	"walletbridge/internal/chain/market"
	"walletbridge/internal/chain/simnet"
	"walletbridge/internal/core/domain"
	"walletbridge/internal/core/ports"
	"walletbridge/internal/registry"
	"walletbridge/internal/service"
	"walletbridge/internal/worker"
	"walletbridge/pkg/logger"
	"walletbridge/pkg/money"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/tarancss/hd"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting WalletBridge")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	walletRepo := pgStorage.NewWalletRepo(pool)
	addrRepo := pgStorage.NewAddressRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	recordRepo := pgStorage.NewRecordRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	lockStore := redisStorage.NewLockStore(rdb)
	queue := redisStorage.NewQueue(rdb)
	priceCache := redisStorage.NewPriceCache(rdb)
	publisher := redisStorage.NewPublisher(rdb, log)

	// Initialize credential sealing
	sealer := service.NewCredentialSealer()

	// Build the adapter registry from configured coins
	reg, closers, err := buildRegistry(cfg, sealer, addrRepo, priceCache, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build coin registry")
	}
	defer func() {
		for _, c := range closers {
			c()
		}
	}()
	log.Info().Int("coins", len(reg.All())).Msg("Coin adapters registered")

	// Initialize business services
	walletSvc := service.NewWalletService(
		reg, walletRepo, addrRepo, recordRepo, publisher, cfg.Server.WebhookURL, log,
	)
	ingestSvc := service.NewIngestService(reg, walletRepo, queue, log)
	reconcileSvc := service.NewReconcileService(
		reg, transactor, txRepo, recordRepo, walletRepo, lockStore, publisher,
		logger.Component(log, "reconciler"),
	)
	marketSvc := service.NewMarketService(reg)
	sweepSvc := service.NewConsolidationService(reg, walletRepo, addrRepo, log)

	// Start the worker pool and the expiry scanner
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	workerPool := worker.NewPool(
		queue, reconcileSvc, recordRepo,
		cfg.Worker.Count, cfg.Worker.MaxAttempts, cfg.Worker.RetryBackoff,
		cfg.Worker.AdapterTimeout, logger.Component(log, "worker"),
	)
	workerPool.Start(workerCtx)

	scanner := worker.NewOverdueScanner(
		recordRepo, queue, cfg.Worker.OverdueInterval, logger.Component(log, "overdue-scanner"),
	)
	go scanner.Run(workerCtx)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WalletSvc:      walletSvc,
		MarketSvc:      marketSvc,
		SweepSvc:       sweepSvc,
		Ingestor:       ingestSvc,
		Registry:       reg,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Drain workers after the HTTP surface is closed.
	stopWorkers()
	workerPool.Wait()

	log.Info().Msg("Server exited")
}

// buildRegistry constructs one adapter per configured coin. The returned
// closers tear down node connections on shutdown.
func buildRegistry(
	cfg *config.Config,
	sealer ports.CredentialSealer,
	addrRepo *pgStorage.AddressRepo,
	priceCache ports.PriceCache,
	log zerolog.Logger,
) (*registry.Registry, []func(), error) {
	reg := registry.New()
	var closers []func()

	gecko := market.NewCoinGecko(&http.Client{Timeout: 10 * time.Second}, "")

	// One HD wallet for every EVM-backed coin.
	var hdw *hd.HdWallet
	if cfg.Crypto.HDSeed != "" {
		seed, err := hex.DecodeString(cfg.Crypto.HDSeed)
		if err != nil {
			return nil, nil, fmt.Errorf("decoding hd seed: %w", err)
		}
		if hdw, err = hd.Init(seed); err != nil {
			return nil, nil, fmt.Errorf("initializing hd wallet: %w", err)
		}
	}

	for _, cc := range cfg.Coins {
		coin := domain.Coin{
			Identifier:        cc.Identifier,
			Name:              cc.Name,
			BaseUnit:          cc.BaseUnit,
			Precision:         cc.Precision,
			CurrencyPrecision: cc.CurrencyPrecision,
			Symbol:            cc.Symbol,
			SymbolFirst:       cc.SymbolFirst,
			Color:             cc.Color,
			Icon:              cc.Icon,
			MinConfirmations:  cc.MinConfirmations,
			DepositExpiry:     cc.DepositExpiry,
		}
		currency := coin.CurrencyCode()

		min, err := money.Parse(currency, cc.MinTransferable)
		if err != nil {
			return nil, nil, fmt.Errorf("coin %s: min_transferable: %w", cc.Identifier, err)
		}
		max, err := money.Parse(currency, cc.MaxTransferable)
		if err != nil {
			return nil, nil, fmt.Errorf("coin %s: max_transferable: %w", cc.Identifier, err)
		}

		var adapter ports.CoinAdapter
		switch strings.ToLower(cc.Backend) {
		case "evm":
			if hdw == nil {
				return nil, nil, fmt.Errorf("coin %s: evm backend requires crypto.hd_seed", cc.Identifier)
			}
			node, err := evm.Dial(cc.Node, cc.NodeSecret)
			if err != nil {
				return nil, nil, fmt.Errorf("coin %s: %w", cc.Identifier, err)
			}
			closers = append(closers, func() { _ = node.End() })

			evmCfg := evm.Config{
				Coin:            coin,
				ContractAddress: cc.ContractAddress,
				NativeCoinID:    cc.NativeCoin,
				GasPriceWei:     cc.GasPriceWei,
				Min:             min,
				Max:             max,
				PriceCache:      priceCache,
				PriceTTL:        time.Hour,
			}
			if cc.PriceAssetID != "" {
				evmCfg.PriceSource = gecko.PriceSource(cc.PriceAssetID)
				evmCfg.PriceChangeSource = gecko.ChangeSource(cc.PriceAssetID)
			}
			adapter = evm.NewAdapter(evmCfg, node, evm.HDDerive(hdw), sealer, addrRepo, log)

		case "simnet":
			price, err := decimal.NewFromString(cc.DollarPrice)
			if err != nil {
				return nil, nil, fmt.Errorf("coin %s: dollar_price: %w", cc.Identifier, err)
			}
			backend := simnet.NewBackend(decimal.New(1, -coin.Precision))
			adapter = simnet.NewAdapter(coin, backend, sealer, min, max, price, log)

		default:
			return nil, nil, fmt.Errorf("coin %s: unknown backend %q", cc.Identifier, cc.Backend)
		}

		if err := reg.Register(adapter); err != nil {
			return nil, nil, err
		}
	}
	return reg, closers, nil
}
