package models

import "time"

// Trade is a confirmed swap submitted by the trade page.
type Trade struct {
	Signature string    `json:"signature"`
	Timestamp time.Time `json:"timestamp"`
	Wallet    string    `json:"wallet"`
	Pair      string    `json:"pair"` // e.g. "SOL-USDC"
	MintIn    string    `json:"mint_in"`
	MintOut   string    `json:"mint_out"`
	AmountIn  uint64    `json:"amount_in"`  // base units
	AmountOut uint64    `json:"amount_out"` // quoted base units
	MinOut    uint64    `json:"min_out"`
	Providers []string  `json:"providers"` // e.g. "token_swap_pool", "serum_dex_market"
	Pool      string    `json:"pool,omitempty"`
	Market    string    `json:"market,omitempty"`
}
