package pools

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Registry holds all configured pools and markets. It is read-only after load.
type Registry struct {
	pools   []TokenSwapPool
	markets []SerumMarket
}

func NewRegistry(pools []TokenSwapPool, markets []SerumMarket) *Registry {
	return &Registry{pools: pools, markets: markets}
}

// LoadRegistry loads pools and markets from JSON files. An empty path means none.
func LoadRegistry(poolsPath, marketsPath string) (*Registry, error) {
	pools, err := LoadPoolsFromJSON(poolsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load pools: %w", err)
	}
	markets, err := LoadMarketsFromJSON(marketsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load markets: %w", err)
	}
	return NewRegistry(pools, markets), nil
}

// LoadPoolsFromJSON reads and parses pool configurations
func LoadPoolsFromJSON(path string) ([]TokenSwapPool, error) {
	var configs []TokenSwapPoolConfig
	if err := readJSON(path, &configs); err != nil {
		return nil, err
	}

	pools := make([]TokenSwapPool, 0, len(configs))
	for i, cfg := range configs {
		pool, err := parsePoolConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("pool %d (%s): %w", i, cfg.Name, err)
		}
		pools = append(pools, pool)
	}
	return pools, nil
}

// LoadMarketsFromJSON reads and parses market configurations
func LoadMarketsFromJSON(path string) ([]SerumMarket, error) {
	var configs []SerumMarketConfig
	if err := readJSON(path, &configs); err != nil {
		return nil, err
	}

	markets := make([]SerumMarket, 0, len(configs))
	for i, cfg := range configs {
		m, err := parseMarketConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("market %d (%s): %w", i, cfg.Name, err)
		}
		markets = append(markets, m)
	}
	return markets, nil
}

func readJSON(path string, v any) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

type keyParser struct {
	err error
}

func (p *keyParser) key(field, s string) solana.PublicKey {
	if p.err != nil {
		return solana.PublicKey{}
	}
	pk, err := solana.PublicKeyFromBase58(strings.TrimSpace(s))
	if err != nil {
		p.err = fmt.Errorf("%s: %w", field, err)
	}
	return pk
}

func (p *keyParser) optional(field, s string) *solana.PublicKey {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	pk := p.key(field, s)
	return &pk
}

// parsePoolConfig converts a config struct to a TokenSwapPool with validation
func parsePoolConfig(cfg TokenSwapPoolConfig) (TokenSwapPool, error) {
	if cfg.FeeDenominator == 0 {
		return TokenSwapPool{}, fmt.Errorf("fee_denominator must be > 0")
	}

	var p keyParser
	pool := TokenSwapPool{
		Name:           cfg.Name,
		ProgramID:      p.key("program_id", cfg.ProgramID),
		SwapAccount:    p.key("swap_account", cfg.SwapAccount),
		Authority:      p.key("authority", cfg.Authority),
		TokenMintA:     p.key("token_mint_a", cfg.TokenMintA),
		TokenMintB:     p.key("token_mint_b", cfg.TokenMintB),
		VaultA:         p.key("vault_a", cfg.VaultA),
		VaultB:         p.key("vault_b", cfg.VaultB),
		PoolMint:       p.key("pool_mint", cfg.PoolMint),
		FeeAccount:     p.key("fee_account", cfg.FeeAccount),
		HostFeeAccount: p.optional("host_fee_account", cfg.HostFeeAccount),
		FeeNumerator:   cfg.FeeNumerator,
		FeeDenominator: cfg.FeeDenominator,
		ChainID:        cfg.ChainID,
	}
	if p.err != nil {
		return TokenSwapPool{}, p.err
	}
	return pool, nil
}

func parseMarketConfig(cfg SerumMarketConfig) (SerumMarket, error) {
	var p keyParser
	m := SerumMarket{
		Name:         cfg.Name,
		ProgramID:    p.key("program_id", cfg.ProgramID),
		Market:       p.key("market", cfg.Market),
		BaseMint:     p.key("base_mint", cfg.BaseMint),
		QuoteMint:    p.key("quote_mint", cfg.QuoteMint),
		Bids:         p.key("bids", cfg.Bids),
		Asks:         p.key("asks", cfg.Asks),
		EventQueue:   p.key("event_queue", cfg.EventQueue),
		RequestQueue: p.key("request_queue", cfg.RequestQueue),
		BaseVault:    p.key("base_vault", cfg.BaseVault),
		QuoteVault:   p.key("quote_vault", cfg.QuoteVault),
		VaultSigner:  p.key("vault_signer", cfg.VaultSigner),
		OpenOrders:   p.optional("open_orders", cfg.OpenOrders),
		ChainID:      cfg.ChainID,
	}
	if p.err != nil {
		return SerumMarket{}, p.err
	}
	return m, nil
}

// FindPool returns the first pool whose mint pair contains both mints, or nil.
func (r *Registry) FindPool(inputMint, outputMint string) *TokenSwapPool {
	for i := range r.pools {
		if Matches(&r.pools[i], inputMint, outputMint) {
			return &r.pools[i]
		}
	}
	return nil
}

// FindMarket returns the first market whose mint pair contains both mints, or nil.
func (r *Registry) FindMarket(inputMint, outputMint string) *SerumMarket {
	for i := range r.markets {
		if Matches(&r.markets[i], inputMint, outputMint) {
			return &r.markets[i]
		}
	}
	return nil
}

// FindPoolByName searches for a pool by its name
func (r *Registry) FindPoolByName(name string) (*TokenSwapPool, error) {
	for i := range r.pools {
		if r.pools[i].Name == name {
			return &r.pools[i], nil
		}
	}
	return nil, fmt.Errorf("pool not found: %s", name)
}

func (r *Registry) Pools() []TokenSwapPool { return r.pools }
func (r *Registry) Markets() []SerumMarket { return r.markets }
func (r *Registry) Count() int { return len(r.pools) + len(r.markets) }
