package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/onesol-trade/internal/config"
	"github.com/aman-zulfiqar/onesol-trade/internal/distribution"
	"github.com/aman-zulfiqar/onesol-trade/internal/notify"
	"github.com/aman-zulfiqar/onesol-trade/internal/pools"
	"github.com/aman-zulfiqar/onesol-trade/internal/swap"
	"github.com/aman-zulfiqar/onesol-trade/internal/tokens"
	"github.com/aman-zulfiqar/onesol-trade/internal/trade"
	"github.com/aman-zulfiqar/onesol-trade/internal/wallet"
)

func loadEnv() {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	_ = godotenv.Load(filepath.Join(projectRoot, ".env"))
}

func main() {
	loadEnv()

	mode := flag.String("mode", "quote", "quote | swap | max | accounts")
	inTok := flag.String("in", "SOL", "input token symbol or mint (e.g. SOL)")
	outTok := flag.String("out", "USDC", "output token symbol or mint (e.g. USDC)")
	amt := flag.String("amt", "", "amount in human units (e.g. 0.1)")
	slippageBps := flag.Int("slippage-bps", 0, "slippage in bps (0 uses DEFAULT_SLIPPAGE_BPS)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Println("invalid configuration:", err)
		os.Exit(2)
	}
	if *slippageBps > 0 {
		cfg.DefaultSlippageBps = uint16(*slippageBps)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	reg, err := tokens.LoadFromJSON(cfg.TokenRegistryPath)
	if err != nil {
		fmt.Println("failed to load tokens:", err)
		os.Exit(1)
	}
	providers, err := pools.LoadRegistry(cfg.PoolsConfigPath, cfg.MarketsConfigPath)
	if err != nil {
		fmt.Println("failed to load pools:", err)
		os.Exit(1)
	}
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
		fmt.Println("failed to init wallet:", err)
		os.Exit(1)
	}
	defer w.Close()

	executor := swap.NewExecutor(w, reg, nil, swap.Config{
		RequireSimulation: cfg.RequireSimulation,
		ConfirmTimeout:    cfg.ConfirmTimeout,
		Commitment:        cfg.WalletCommitment,
		Logger:            logger,
	})

	page, err := trade.NewPage(ctx, trade.Config{
		Tokens:             reg,
		Providers:          providers,
		Quoter:             distribution.NewClient(cfg.DistributionURL, cfg.DistributionTimeout),
		ChainID:            cfg.ChainID,
		QuoteTimeout:       cfg.DistributionTimeout,
		Wallet:             w,
		Swapper:            executor,
		Notifier:           notify.Log{Logger: logger},
		DefaultSlippageBps: cfg.DefaultSlippageBps,
		MintA:              *inTok,
		MintB:              *outTok,
		Logger:             logger,
	})
	if err != nil {
		fmt.Println("failed to open trade page:", err)
		os.Exit(1)
	}
	defer page.Close()

	if err := page.RefreshAccounts(ctx); err != nil {
		fmt.Println("failed to load token accounts:", err)
		os.Exit(1)
	}

	switch *mode {
	case "accounts":
		v := page.View()
		fmt.Printf("connected=%v %s=%s %s=%s has_token_account=%v\n",
			v.Connected, v.A.Symbol, v.A.Balance, v.B.Symbol, v.B.Balance, v.HasTokenAccount)
		return
	case "max":
		fmt.Println("max:", page.MaxA())
	case "quote", "swap":
		if *amt == "" {
			fmt.Println("missing -amt (must be > 0)")
			os.Exit(2)
		}
		page.InputA(*amt)
	default:
		fmt.Println("invalid -mode (use quote|swap|max|accounts)")
		os.Exit(2)
	}

	if err := page.Wait(ctx); err != nil {
		fmt.Println("quote interrupted:", err)
		os.Exit(1)
	}
	v := page.View()
	if v.PoolNotAvailable {
		fmt.Println(v.Label)
		os.Exit(1)
	}
	if v.LastError != "" {
		fmt.Println("quote failed:", v.LastError)
		os.Exit(1)
	}
	fmt.Printf("%s %s -> %s %s label=%q\n", v.A.Amount, v.A.Symbol, v.B.Amount, v.B.Symbol, v.Label)
	for _, r := range v.Routes {
		fmt.Printf("  %s via %s: %s -> %s\n", r.Name, r.Provider, r.Input, r.Output)
	}

	if *mode != "swap" {
		return
	}
	if v.Disabled {
		fmt.Println("swap unavailable:", v.Label)
		os.Exit(1)
	}
	res, err := page.HandleSwap(ctx)
	if err != nil {
		fmt.Println("swap failed:", err)
		os.Exit(1)
	}
	fmt.Printf("sig=%s instructions=%d duration=%s\n", res.Signature, res.Instructions, res.Duration)
}
