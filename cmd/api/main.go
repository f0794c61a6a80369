package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/onesol-trade/internal/config"
	"github.com/aman-zulfiqar/onesol-trade/internal/distribution"
	"github.com/aman-zulfiqar/onesol-trade/internal/farm"
	"github.com/aman-zulfiqar/onesol-trade/internal/history"
	"github.com/aman-zulfiqar/onesol-trade/internal/notify"
	"github.com/aman-zulfiqar/onesol-trade/internal/pools"
	"github.com/aman-zulfiqar/onesol-trade/internal/server"
	"github.com/aman-zulfiqar/onesol-trade/internal/settings"
	"github.com/aman-zulfiqar/onesol-trade/internal/swap"
	"github.com/aman-zulfiqar/onesol-trade/internal/tokens"
	"github.com/aman-zulfiqar/onesol-trade/internal/trade"
	"github.com/aman-zulfiqar/onesol-trade/internal/wallet"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main is the entry point for the trade API server
// It initializes all dependencies and starts the HTTP server with graceful shutdown
func main() {
	// Initialize structured logger with custom formatting
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	// Load and validate configuration from environment variables
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.WithField("level", cfg.LogLevel).Warn("unknown LOG_LEVEL, keeping info")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown (Ctrl+C, SIGTERM)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Registries are read-only after load
	reg, err := tokens.LoadFromJSON(cfg.TokenRegistryPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to load token registry")
	}
	providers, err := pools.LoadRegistry(cfg.PoolsConfigPath, cfg.MarketsConfigPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to load pools and markets")
	}
	farms, err := pools.LoadFarmsFromJSON(cfg.FarmsConfigPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to load farms")
	}
	logger.WithFields(logrus.Fields{
		"tokens":  len(reg.All()),
		"pools":   len(providers.Pools()),
		"markets": len(providers.Markets()),
		"farms":   len(farms.All()),
	}).Info("registries loaded")

	quoter := distribution.NewClient(cfg.DistributionURL, cfg.DistributionTimeout)

	// Without a private key the wallet stays disconnected and the pages only quote
	w, err := wallet.NewWallet(wallet.WalletConfig{
		RPCURL:            cfg.RPCUrl,
		Timeout:           cfg.RPCTimeout,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
		PrivateKey:        cfg.WalletPrivateKey,
		DefaultCommitment: cfg.WalletCommitment,
		Logger:            logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create wallet")
	}
	defer w.Close()
	if w.Connected() {
		logger.WithField("wallet", w.Address()).Info("wallet connected")
	} else {
		logger.Warn("WALLET_PRIVATE_KEY not set, running with a disconnected wallet")
	}

	// Settings and notifications live in Redis when configured, in memory otherwise
	var (
		settingsStore settings.Store
		notifiers     = notify.Multi{notify.Log{Logger: logger}}
		lister        notify.Lister
	)
	if cfg.RedisAddr != "" {
		rclient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   0, // Use default database for main application
		})
		if err := rclient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Fatal("failed to connect to Redis")
		}
		defer rclient.Close()

		rs, err := settings.NewRedisStore(rclient, cfg.DefaultSlippageBps)
		if err != nil {
			logger.WithError(err).Fatal("failed to create settings store")
		}
		rn, err := notify.NewRedis(rclient, 100)
		if err != nil {
			logger.WithError(err).Fatal("failed to create notification store")
		}
		settingsStore = rs
		notifiers = append(notifiers, rn)
		lister = rn
	} else {
		ms, err := settings.NewMemoryStore(cfg.DefaultSlippageBps)
		if err != nil {
			logger.WithError(err).Fatal("failed to create settings store")
		}
		rec := notify.NewRecorder(100)
		settingsStore = ms
		notifiers = append(notifiers, rec)
		lister = rec
	}

	// Confirmed trades go to ClickHouse when configured
	var hist history.Store = history.NewMemory()
	if cfg.ClickHouseAddr != "" {
		ch, err := history.NewClickHouseStore(ctx, history.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
			Logger:   logger,
		})
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to ClickHouse")
		}
		defer ch.Close()
		hist = ch
	}

	executor := swap.NewExecutor(w, reg, hist, swap.Config{
		RequireSimulation: cfg.RequireSimulation,
		ConfirmTimeout:    cfg.ConfirmTimeout,
		Commitment:        cfg.WalletCommitment,
		Logger:            logger,
	})

	// Sessions expire after SESSION_TTL without use
	tradeSessions := trade.NewSessions[*trade.Page](cfg.SessionTTL, logger)
	farmSessions := trade.NewSessions[*farm.Page](cfg.SessionTTL, logger)
	go tradeSessions.Run(ctx, time.Minute)
	go farmSessions.Run(ctx, time.Minute)

	// Create handlers with all dependencies injected
	h := &server.Handlers{
		Tokens:        reg,
		Providers:     providers,
		Farms:         farms,
		Quoter:        quoter,
		ChainID:       cfg.ChainID,
		Settings:      settingsStore,
		Notifications: lister,
		History:       hist,
		Wallet:        w,
		TradeSessions: tradeSessions,
		FarmSessions:  farmSessions,
		NewTradePage: func(mintA, mintB string) (*trade.Page, error) {
			// Empty selections fall back to the default SOL -> USDC form
			if mintA == "" && mintB == "" {
				mintA, mintB = "SOL", "USDC"
			}
			return trade.NewPage(ctx, trade.Config{
				Tokens:             reg,
				Providers:          providers,
				Quoter:             quoter,
				ChainID:            cfg.ChainID,
				QuoteTimeout:       cfg.DistributionTimeout,
				Wallet:             w,
				Swapper:            executor,
				Settings:           settingsStore,
				Notifier:           notifiers,
				DefaultSlippageBps: cfg.DefaultSlippageBps,
				MintA:              mintA,
				MintB:              mintB,
				Logger:             logger,
			})
		},
		NewFarmPage: func(address string) (*farm.Page, error) {
			return farm.NewPage(farm.Config{Tokens: reg, Farms: farms, Wallet: w, Logger: logger}, address)
		},
		QuoteTimeout: cfg.DistributionTimeout,
		SwapTimeout:  cfg.ConfirmTimeout + 10*time.Second,
		DevMode:      cfg.DevMode,
		Logger:       logger,
	}

	// Create HTTP server with configuration and handlers
	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:    cfg.APIAddr, // Server bind address (e.g., ":8090")
			DevMode: cfg.DevMode, // Development mode flag
			APIKey:  cfg.APIKey,  // Optional API key for authentication
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	// Setup graceful shutdown in a separate goroutine
	go func() {
		<-sigCh // Wait for shutdown signal
		logger.Info("shutting down")
		cancel()                               // Stops session sweepers and closes open pages
		_ = srv.Shutdown(context.Background()) // Gracefully shutdown HTTP server
	}()

	// Start the HTTP server
	logger.WithField("addr", cfg.APIAddr).Info("api server starting")
	if err := srv.Start(); err != nil {
		// http.ErrServerClosed is expected during graceful shutdown
		if errors.Is(err, http.ErrServerClosed) {
			_ = srv.WaitClosed(context.Background())
			return
		}
		logger.WithError(err).Fatal("api server failed")
	}

	// Wait for server to be fully shut down
	if err := srv.WaitClosed(context.Background()); err != nil {
		fmt.Println(err)
	}
}
