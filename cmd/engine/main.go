package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/helixpay/custody-engine/internal/adapter"
	"github.com/helixpay/custody-engine/internal/chains"
	"github.com/helixpay/custody-engine/internal/chains/cardano"
	"github.com/helixpay/custody-engine/internal/chains/evm"
	"github.com/helixpay/custody-engine/internal/chains/solana"
	"github.com/helixpay/custody-engine/internal/chains/tron"
	"github.com/helixpay/custody-engine/internal/chains/utxo"
	"github.com/helixpay/custody-engine/internal/chains/xrp"
	"github.com/helixpay/custody-engine/internal/config"
	"github.com/helixpay/custody-engine/internal/directory"
	"github.com/helixpay/custody-engine/internal/domain"
	"github.com/helixpay/custody-engine/internal/engine"
	"github.com/helixpay/custody-engine/internal/logger"
	"github.com/helixpay/custody-engine/internal/notify"
	"github.com/helixpay/custody-engine/internal/payout"
	"github.com/helixpay/custody-engine/internal/rates"
	"github.com/helixpay/custody-engine/internal/reconcile"
	"github.com/helixpay/custody-engine/internal/seed"
	"github.com/helixpay/custody-engine/internal/store"
	"github.com/helixpay/custody-engine/internal/sweep"
	"github.com/helixpay/custody-engine/internal/verify"
	"github.com/helixpay/custody-engine/internal/withdraw"

	"github.com/btcsuite/btcd/chaincfg"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadEngineConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "engine",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Custody Engine")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Initialize stores
	wallets := store.NewWalletStore(db)
	ledger := store.NewLedgerStore(db)
	events := store.NewEventStore(db)
	cursors := store.NewCursorStore(db)

	// Build the seed vault from environment-sourced mnemonics. A malformed
	// mnemonic aborts startup before any address could be derived from it.
	vault, err := seed.NewVault(map[domain.Network]string{
		domain.NetworkEthereum: cfg.Chains.Ethereum.Mnemonic,
		domain.NetworkTron:     cfg.Chains.Tron.Mnemonic,
		domain.NetworkBitcoin:  cfg.Chains.Bitcoin.Mnemonic,
		domain.NetworkDogecoin: cfg.Chains.Dogecoin.Mnemonic,
		domain.NetworkCardano:  cfg.Chains.Cardano.Mnemonic,
		domain.NetworkSolana:   cfg.Chains.Solana.Mnemonic,
		domain.NetworkXRP:      cfg.Chains.XRP.Mnemonic,
	})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to build seed vault", zap.Error(err))
	}

	// Initialize HTTP client shared by explorers and the rate oracle
	httpClient := adapter.NewHTTPClient(cfg.Chains.RPCTimeout)

	// Connect every configured chain
	registry, err := buildRegistry(cfg, vault, httpClient)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to build chain registry", zap.Error(err))
	}
	if len(registry.Networks()) == 0 {
		logger.FatalCtx(ctx, "No chains configured")
	}
	logger.InfoCtx(ctx, "Chain registry ready", zap.Int("chains", len(registry.Networks())))

	// Initialize rate oracle
	oracleClient := adapter.NewHTTPClient(cfg.Oracle.Timeout)
	oracle := rates.NewHTTPOracle(oracleClient, cfg.Oracle.BaseURL, cfg.Oracle.APIKey)

	// Connect deposit notification sink
	sink, closeSink, err := notify.NewNATSSink(notify.Options{
		URL:            cfg.NATS.URL,
		Subject:        cfg.NATS.Subject,
		ConnectionName: cfg.NATS.ConnectionName,
		MaxReconnects:  cfg.NATS.MaxReconnects,
		ReconnectWait:  cfg.NATS.ReconnectWait,
	})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
	}
	defer closeSink()
	logger.InfoCtx(ctx, "Connected to NATS", zap.String("subject", cfg.NATS.Subject))

	// Wire the engine
	dir := directory.New(registry, wallets)
	sweeper := sweep.New(registry, wallets, adapter.NewClock(), cfg.Worker.PoolSize, cfg.Worker.QueueSize)
	withdrawer := withdraw.New(registry, payout.NewChainProvider(registry), ledger)
	reconciler := reconcile.New(reconcile.Config{
		Registry:      registry,
		Wallets:       wallets,
		Ledger:        ledger,
		Events:        events,
		Cursors:       cursors,
		Oracle:        oracle,
		Sink:          sink,
		Window:        cfg.Jobs.ReconcileWindow,
		LocalCurrency: cfg.Oracle.LocalCurrency,
	})
	verifier := verify.New(ledger, withdrawer)
	eng := engine.New(registry, wallets, dir, sweeper, withdrawer, reconciler)

	// Schedule the background jobs
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Jobs.SweepSchedule, func() {
		if err := eng.SweepAll(ctx); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("message", "sweep run failed"))
		}
	}); err != nil {
		logger.FatalCtx(ctx, "Failed to schedule sweep job", zap.Error(err))
	}
	if _, err := scheduler.AddFunc(cfg.Jobs.ReconcileSchedule, func() {
		if err := eng.ReconcileAll(ctx); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("message", "reconcile run failed"))
		}
	}); err != nil {
		logger.FatalCtx(ctx, "Failed to schedule reconcile job", zap.Error(err))
	}
	if _, err := scheduler.AddFunc(cfg.Jobs.VerifySchedule, func() {
		if err := verifier.Run(ctx); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("message", "withdrawal verification run failed"))
		}
	}); err != nil {
		logger.FatalCtx(ctx, "Failed to schedule verification job", zap.Error(err))
	}
	scheduler.Start()

	logger.InfoCtx(ctx, "Engine running",
		zap.String("sweep_schedule", cfg.Jobs.SweepSchedule),
		zap.String("reconcile_schedule", cfg.Jobs.ReconcileSchedule),
		zap.String("verify_schedule", cfg.Jobs.VerifySchedule),
	)

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))

	// Stop scheduling new runs, then let in-flight runs drain
	stopCtx := scheduler.Stop()
	cancel()

	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		logger.Warn("Job drain timed out")
	}

	logger.Info("Engine stopped")
}

// buildRegistry connects an adapter for every chain that has a mnemonic
// configured and registers it. A chain without a mnemonic is simply absent
// from the deployment.
func buildRegistry(cfg *config.EngineConfig, vault *seed.Vault, httpClient adapter.HTTPClient) (*chains.Registry, error) {
	registry := chains.NewRegistry()
	newGuard := func() *chains.Guard {
		return chains.NewGuard(10, 20, cfg.Chains.RPCTimeout)
	}

	if cfg.Chains.Ethereum.Mnemonic != "" {
		masterSeed, err := vault.Seed(domain.NetworkEthereum)
		if err != nil {
			return nil, err
		}
		native := domain.Asset{Symbol: "ETH", Decimals: 18}
		tokens := tokenAssets(cfg.Chains.Ethereum.Tokens)
		topUp, ok := new(big.Int).SetString(cfg.Chains.Ethereum.TopUpWei, 10)
		if !ok {
			return nil, fmt.Errorf("ethereum: malformed top_up_wei %q", cfg.Chains.Ethereum.TopUpWei)
		}
		a, err := evm.New(evm.Config{
			Seed:          masterSeed,
			RPCURL:        cfg.Chains.Ethereum.RPCURL,
			ChainID:       big.NewInt(cfg.Chains.Ethereum.ChainID),
			Native:        native,
			Tokens:        tokens,
			TokenGasLimit: cfg.Chains.Ethereum.TokenGasLimit,
			TopUpWei:      topUp,
			Explorer:      evm.NewEtherscanExplorer(httpClient, cfg.Chains.Ethereum.ExplorerURL, cfg.Chains.Ethereum.ExplorerAPIKey, native, tokens),
			Guard:         newGuard(),
		})
		if err != nil {
			return nil, fmt.Errorf("ethereum: %w", err)
		}
		registry.Register(a, append([]domain.Asset{native}, tokens...))
	}

	if cfg.Chains.Tron.Mnemonic != "" {
		masterSeed, err := vault.Seed(domain.NetworkTron)
		if err != nil {
			return nil, err
		}
		native := domain.Asset{Symbol: "TRX", Decimals: 6}
		tokens := tokenAssets(cfg.Chains.Tron.Tokens)
		a, err := tron.New(tron.Config{
			Seed:     masterSeed,
			GRPCAddr: cfg.Chains.Tron.GRPCAddr,
			APIKey:   cfg.Chains.Tron.APIKey,
			Native:   native,
			Tokens:   tokens,
			FeeLimit: cfg.Chains.Tron.FeeLimit,
			TopUpSun: cfg.Chains.Tron.TopUpSun,
			History:  tron.NewTronGridHistory(httpClient, cfg.Chains.Tron.HTTPURL, cfg.Chains.Tron.APIKey, native, tokens),
			Guard:    newGuard(),
		})
		if err != nil {
			return nil, fmt.Errorf("tron: %w", err)
		}
		registry.Register(a, append([]domain.Asset{native}, tokens...))
	}

	if cfg.Chains.Bitcoin.Mnemonic != "" {
		native := domain.Asset{Symbol: "BTC", Decimals: 8}
		a, err := buildUTXO(cfg.Chains.Bitcoin, vault, httpClient, utxoChain{
			network:  domain.NetworkBitcoin,
			coinType: 0,
			params:   &chaincfg.MainNetParams,
			native:   native,
			guard:    newGuard(),
		})
		if err != nil {
			return nil, fmt.Errorf("bitcoin: %w", err)
		}
		registry.Register(a, []domain.Asset{native})
	}

	if cfg.Chains.Dogecoin.Mnemonic != "" {
		native := domain.Asset{Symbol: "DOGE", Decimals: 8}
		a, err := buildUTXO(cfg.Chains.Dogecoin, vault, httpClient, utxoChain{
			network:  domain.NetworkDogecoin,
			coinType: utxo.DogecoinParams.HDCoinType,
			params:   &utxo.DogecoinParams,
			native:   native,
			guard:    newGuard(),
		})
		if err != nil {
			return nil, fmt.Errorf("dogecoin: %w", err)
		}
		registry.Register(a, []domain.Asset{native})
	}

	if cfg.Chains.Cardano.Mnemonic != "" {
		entropy, err := vault.Entropy(domain.NetworkCardano)
		if err != nil {
			return nil, err
		}
		native := domain.Asset{Symbol: "ADA", Decimals: 6}
		a, err := cardano.New(cardano.Config{
			Entropy:        entropy,
			ProjectID:      cfg.Chains.Cardano.ProjectID,
			Testnet:        cfg.Chains.Cardano.Testnet,
			Native:         native,
			TTLOffsetSlots: cfg.Chains.Cardano.TTLOffsetSlots,
			Guard:          newGuard(),
		})
		if err != nil {
			return nil, fmt.Errorf("cardano: %w", err)
		}
		registry.Register(a, []domain.Asset{native})
	}

	if cfg.Chains.Solana.Mnemonic != "" {
		masterSeed, err := vault.Seed(domain.NetworkSolana)
		if err != nil {
			return nil, err
		}
		native := domain.Asset{Symbol: "SOL", Decimals: 9}
		tokens := tokenAssets(cfg.Chains.Solana.Tokens)
		a, err := solana.New(solana.Config{
			Seed:          masterSeed,
			RPCURL:        cfg.Chains.Solana.RPCURL,
			Native:        native,
			Tokens:        tokens,
			TopUpLamports: cfg.Chains.Solana.TopUpLamports,
			Guard:         newGuard(),
		})
		if err != nil {
			return nil, fmt.Errorf("solana: %w", err)
		}
		registry.Register(a, append([]domain.Asset{native}, tokens...))
	}

	if cfg.Chains.XRP.Mnemonic != "" {
		masterSeed, err := vault.Seed(domain.NetworkXRP)
		if err != nil {
			return nil, err
		}
		native := domain.Asset{Symbol: "XRP", Decimals: 6}
		a, err := xrp.New(xrp.Config{
			Seed:          masterSeed,
			WSURL:         cfg.Chains.XRP.WSURL,
			Native:        native,
			ReserveDrops:  cfg.Chains.XRP.ReserveDrops,
			MarginDrops:   cfg.Chains.XRP.MarginDrops,
			SharedAddress: cfg.Chains.XRP.SharedAddress,
			Guard:         newGuard(),
		})
		if err != nil {
			return nil, fmt.Errorf("xrp: %w", err)
		}
		registry.Register(a, []domain.Asset{native})
	}

	return registry, nil
}

type utxoChain struct {
	network  domain.Network
	coinType uint32
	params   *chaincfg.Params
	native   domain.Asset
	guard    *chains.Guard
}

func buildUTXO(cfg config.UTXOConfig, vault *seed.Vault, httpClient adapter.HTTPClient, chain utxoChain) (*utxo.Adapter, error) {
	masterSeed, err := vault.Seed(chain.network)
	if err != nil {
		return nil, err
	}
	return utxo.New(utxo.Config{
		Network:         chain.network,
		CoinType:        chain.coinType,
		Params:          chain.params,
		Seed:            masterSeed,
		Native:          chain.native,
		Gateway:         utxo.NewEsploraGateway(httpClient, cfg.GatewayURL),
		DustLimit:       cfg.DustLimit,
		FallbackFeeRate: cfg.FallbackFeeRate,
		Guard:           chain.guard,
	})
}

func tokenAssets(tokens []config.TokenConfig) []domain.Asset {
	out := make([]domain.Asset, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, domain.Asset{Symbol: t.Symbol, Contract: t.Contract, Decimals: t.Decimals})
	}
	return out
}
