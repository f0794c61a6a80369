package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// RPC settings
	RPCUrl       string
	RPCTimeout   time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// Quote (distribution) API
	DistributionURL     string
	DistributionTimeout time.Duration
	ChainID             int

	// Registries
	TokenRegistryPath string
	PoolsConfigPath   string
	MarketsConfigPath string
	FarmsConfigPath   string

	// Trading
	DefaultSlippageBps uint16
	RequireSimulation  bool
	ConfirmTimeout     time.Duration
	SessionTTL         time.Duration

	// Wallet
	WalletPrivateKey string
	WalletCommitment string

	// Redis settings (optional)
	RedisAddr string

	// ClickHouse settings (optional)
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// API server
	APIAddr  string
	APIKey   string
	DevMode  bool
	LogLevel string
}

func Load() *Config {
	return &Config{
		// RPC
		RPCUrl:       getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		RPCTimeout:   getDurationEnv("RPC_TIMEOUT", 30*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 3),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", time.Second),

		// Quote API
		DistributionURL:     getEnv("DISTRIBUTION_URL", "https://api.1sol.io/distribution2"),
		DistributionTimeout: getDurationEnv("DISTRIBUTION_TIMEOUT", 10*time.Second),
		ChainID:             getIntEnv("CHAIN_ID", 101),

		// Registries
		TokenRegistryPath: getEnv("TOKEN_REGISTRY_PATH", ""),
		PoolsConfigPath:   getEnv("POOLS_CONFIG_PATH", "internal/config/pools.json"),
		MarketsConfigPath: getEnv("MARKETS_CONFIG_PATH", "internal/config/markets.json"),
		FarmsConfigPath:   getEnv("FARMS_CONFIG_PATH", "internal/config/farms.json"),

		// Trading
		DefaultSlippageBps: uint16(getIntEnv("DEFAULT_SLIPPAGE_BPS", 50)),
		RequireSimulation:  getBoolEnv("REQUIRE_SIMULATION", true),
		ConfirmTimeout:     getDurationEnv("CONFIRM_TIMEOUT", 60*time.Second),
		SessionTTL:         getDurationEnv("SESSION_TTL", 30*time.Minute),

		// Wallet
		WalletPrivateKey: getEnv("WALLET_PRIVATE_KEY", ""),
		WalletCommitment: getEnv("WALLET_COMMITMENT", "confirmed"),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", ""),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "onesol"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// API
		APIAddr:  getEnv("API_ADDR", ":8090"),
		APIKey:   getEnv("API_KEY", ""),
		DevMode:  getBoolEnv("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks settings that would otherwise fail later at request time.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCUrl) == "" {
		return fmt.Errorf("SOLANA_RPC_URL is required")
	}
	if strings.TrimSpace(c.DistributionURL) == "" {
		return fmt.Errorf("DISTRIBUTION_URL is required")
	}
	if c.DistributionTimeout <= 0 {
		return fmt.Errorf("DISTRIBUTION_TIMEOUT must be > 0")
	}
	if c.DefaultSlippageBps == 0 || c.DefaultSlippageBps > 5000 {
		return fmt.Errorf("DEFAULT_SLIPPAGE_BPS must be in (0, 5000], got %d", c.DefaultSlippageBps)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must be >= 0")
	}
	if strings.TrimSpace(c.APIAddr) == "" {
		return fmt.Errorf("API_ADDR is required")
	}
	if c.ClickHouseAddr != "" && c.ClickHouseDatabase == "" {
		return fmt.Errorf("CLICKHOUSE_DATABASE is required when CLICKHOUSE_ADDR is set")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
