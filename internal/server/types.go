package server

import (
	"github.com/aman-zulfiqar/onesol-trade/internal/distribution"
	"github.com/aman-zulfiqar/onesol-trade/internal/farm"
	"github.com/aman-zulfiqar/onesol-trade/internal/route"
	"github.com/aman-zulfiqar/onesol-trade/internal/swap"
	"github.com/aman-zulfiqar/onesol-trade/internal/trade"
)

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK        bool   `json:"ok"`
	Connected bool   `json:"connected"`        // Whether a signing wallet is configured
	Wallet    string `json:"wallet,omitempty"` // Wallet address when connected
}

// PoolResponse describes a token-swap pool
type PoolResponse struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	MintA   string `json:"mint_a"`
	MintB   string `json:"mint_b"`
	FeeBps  uint16 `json:"fee_bps"`
	ChainID int    `json:"chain_id,omitempty"`
}

// MarketResponse describes an order-book market
type MarketResponse struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	BaseMint  string `json:"base_mint"`
	QuoteMint string `json:"quote_mint"`
	ChainID   int    `json:"chain_id,omitempty"`
}

// FarmResponse describes a farm
type FarmResponse struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Pool    string `json:"pool"`
	MintA   string `json:"mint_a"`
	MintB   string `json:"mint_b"`
}

// QuoteResponse is a one-off quote in human units
type QuoteResponse struct {
	InputMint  string             `json:"input_mint"`
	OutputMint string             `json:"output_mint"`
	AmountIn   string             `json:"amount_in"`
	AmountOut  string             `json:"amount_out"`
	Routes     []route.Leg        `json:"routes"`
	Split      distribution.Split `json:"split"`
}

// SettingsUpdateRequest sets the slippage tolerance of a wallet
type SettingsUpdateRequest struct {
	Wallet      string `json:"wallet"`       // Empty selects the default settings
	SlippageBps uint16 `json:"slippage_bps"` // 1..5000
}

// TradeCreateRequest opens a trade session
type TradeCreateRequest struct {
	MintA string `json:"mint_a"` // Mint address or symbol
	MintB string `json:"mint_b"`
}

// TradeMintsRequest changes one or both selected mints
type TradeMintsRequest struct {
	MintA string `json:"mint_a,omitempty"`
	MintB string `json:"mint_b,omitempty"`
}

// InputRequest is a value typed into one leg
type InputRequest struct {
	Side   string `json:"side"` // "a"/"b" on trade pages, "base"/"quote" on farm pages
	Amount string `json:"amount"`
}

// MaxRequest selects the leg a max shortcut applies to (farm pages only)
type MaxRequest struct {
	Side string `json:"side"`
}

// TradeSessionResponse is a trade session and its current view
type TradeSessionResponse struct {
	ID   string     `json:"id"`
	View trade.View `json:"view"`
}

// TradeSwapResponse is a submitted swap and the view after it
type TradeSwapResponse struct {
	Result *swap.Result `json:"result"`
	View   trade.View   `json:"view"`
}

// TokenAccountResponse is a created token account transaction
type TokenAccountResponse struct {
	Signature string     `json:"signature"`
	View      trade.View `json:"view"`
}

// FarmSessionResponse is a farm session and its current view
type FarmSessionResponse struct {
	ID   string    `json:"id"`
	View farm.View `json:"view"`
}
