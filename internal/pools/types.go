package pools

import (
	"github.com/gagliardetto/solana-go"
)

// Kind identifies a liquidity provider type; values match the quote API's provider_type.
type Kind string

const (
	KindTokenSwap Kind = "token_swap_pool"
	KindSerum     Kind = "serum_dex_market"
)

// Provider is a liquidity source that can fill part of a trade.
type Provider interface {
	Kind() Kind
	ProviderAddress() solana.PublicKey
	Mints() (a, b solana.PublicKey)
	DisplayName() string
}

// TokenSwapPoolConfig represents a pool entry in the JSON config
type TokenSwapPoolConfig struct {
	Name           string `json:"name"`
	ProgramID      string `json:"program_id"`
	SwapAccount    string `json:"swap_account"`
	Authority      string `json:"authority"`
	TokenMintA     string `json:"token_mint_a"`
	TokenMintB     string `json:"token_mint_b"`
	VaultA         string `json:"vault_a"`
	VaultB         string `json:"vault_b"`
	PoolMint       string `json:"pool_mint"`
	FeeAccount     string `json:"fee_account"`
	HostFeeAccount string `json:"host_fee_account,omitempty"`
	FeeNumerator   uint64 `json:"fee_numerator"`
	FeeDenominator uint64 `json:"fee_denominator"`
	ChainID        int    `json:"chain_id,omitempty"`
}

// TokenSwapPool is an SPL token-swap (constant product) pool.
type TokenSwapPool struct {
	Name           string
	ProgramID      solana.PublicKey
	SwapAccount    solana.PublicKey
	Authority      solana.PublicKey
	TokenMintA     solana.PublicKey
	TokenMintB     solana.PublicKey
	VaultA         solana.PublicKey
	VaultB         solana.PublicKey
	PoolMint       solana.PublicKey
	FeeAccount     solana.PublicKey
	HostFeeAccount *solana.PublicKey
	FeeNumerator   uint64
	FeeDenominator uint64
	ChainID        int
}

func (p *TokenSwapPool) Kind() Kind                        { return KindTokenSwap }
func (p *TokenSwapPool) ProviderAddress() solana.PublicKey { return p.SwapAccount }
func (p *TokenSwapPool) Mints() (solana.PublicKey, solana.PublicKey) {
	return p.TokenMintA, p.TokenMintB
}
func (p *TokenSwapPool) DisplayName() string { return p.Name }

// SerumMarketConfig represents a market entry in the JSON config.
// OpenOrders is the trading wallet's open-orders account on this market.
type SerumMarketConfig struct {
	Name         string `json:"name"`
	ProgramID    string `json:"program_id"`
	Market       string `json:"market"`
	BaseMint     string `json:"base_mint"`
	QuoteMint    string `json:"quote_mint"`
	Bids         string `json:"bids"`
	Asks         string `json:"asks"`
	EventQueue   string `json:"event_queue"`
	RequestQueue string `json:"request_queue"`
	BaseVault    string `json:"base_vault"`
	QuoteVault   string `json:"quote_vault"`
	VaultSigner  string `json:"vault_signer"`
	OpenOrders   string `json:"open_orders,omitempty"`
	ChainID      int    `json:"chain_id,omitempty"`
}

// SerumMarket is an order-book market. Base is the coin side, quote the pc side.
type SerumMarket struct {
	Name         string
	ProgramID    solana.PublicKey
	Market       solana.PublicKey
	BaseMint     solana.PublicKey
	QuoteMint    solana.PublicKey
	Bids         solana.PublicKey
	Asks         solana.PublicKey
	EventQueue   solana.PublicKey
	RequestQueue solana.PublicKey
	BaseVault    solana.PublicKey
	QuoteVault   solana.PublicKey
	VaultSigner  solana.PublicKey
	OpenOrders   *solana.PublicKey
	ChainID      int
}

func (m *SerumMarket) Kind() Kind                        { return KindSerum }
func (m *SerumMarket) ProviderAddress() solana.PublicKey { return m.Market }
func (m *SerumMarket) Mints() (solana.PublicKey, solana.PublicKey) {
	return m.BaseMint, m.QuoteMint
}
func (m *SerumMarket) DisplayName() string { return m.Name }

// Matches reports whether {inputMint, outputMint} is contained in the provider's
// mint pair, in either order.
func Matches(p Provider, inputMint, outputMint string) bool {
	if p == nil || inputMint == "" || outputMint == "" {
		return false
	}
	a, b := p.Mints()
	as, bs := a.String(), b.String()
	in := inputMint == as || inputMint == bs
	out := outputMint == as || outputMint == bs
	return in && out
}
