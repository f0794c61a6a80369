package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/onesol-trade/internal/config"
	"github.com/aman-zulfiqar/onesol-trade/internal/notify"
)

func loadEnv() {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	_ = godotenv.Load(filepath.Join(projectRoot, ".env"))
}

// Tails the notifications the API server publishes to Redis.
func main() {
	loadEnv()

	walletAddr := flag.String("wallet", "", "wallet address to follow (empty follows every wallet)")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})

	cfg := config.Load()
	if cfg.RedisAddr == "" {
		logger.Fatal("REDIS_ADDR is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down subscriber")
		cancel()
	}()

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}

	logger.WithField("wallet", *walletAddr).Info("subscriber running, press Ctrl+C to stop")
	err := notify.Subscribe(ctx, client, *walletAddr, func(n notify.Notification) {
		entry := logger.WithFields(logrus.Fields{
			"type": n.Type,
			"txid": n.TxID,
			"at":   n.At,
		})
		if n.Description != "" {
			entry = entry.WithField("description", n.Description)
		}
		entry.Info(n.Message)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Fatal("subscription failed")
	}
}
