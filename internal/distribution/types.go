package distribution

import (
	"github.com/aman-zulfiqar/onesol-trade/internal/pools"
)

// Request is the body posted to the distribution endpoint.
type Request struct {
	AmountIn                uint64   `json:"amount_in"`
	ChainID                 int      `json:"chain_id"`
	SourceTokenMintKey      string   `json:"source_token_mint_key"`
	DestinationTokenMintKey string   `json:"destination_token_mint_key"`
	Providers               []string `json:"providers"`
}

// Distribution is one provider's share of the trade.
type Distribution struct {
	ProviderType pools.Kind `json:"provider_type"`
	AmountIn     uint64     `json:"amount_in"`
	AmountOut    uint64     `json:"amount_out"`
	LimitPrice   *uint64    `json:"limit_price,omitempty"`
	MaxCoinQty   *uint64    `json:"max_coin_qty,omitempty"`
	MaxPcQty     *uint64    `json:"max_pc_qty,omitempty"`
}

type Response struct {
	AmountOut     uint64         `json:"amount_out"`
	Distributions []Distribution `json:"distributions"`
}

// TokenSwapRoute is the amount routed through a token-swap pool.
type TokenSwapRoute struct {
	AmountIn  uint64 `json:"amount_in"`
	AmountOut uint64 `json:"amount_out"`
}

// SerumRoute is the amount routed through an order-book market, with the
// order parameters needed to place it.
type SerumRoute struct {
	AmountIn   uint64 `json:"amount_in"`
	AmountOut  uint64 `json:"amount_out"`
	LimitPrice uint64 `json:"limit_price"`
	MaxCoinQty uint64 `json:"max_coin_qty"`
	MaxPcQty   uint64 `json:"max_pc_qty"`
}

// Split holds at most one route per provider type.
type Split struct {
	TokenSwap *TokenSwapRoute `json:"token_swap,omitempty"`
	Serum     *SerumRoute     `json:"serum,omitempty"`
}

func (s Split) Empty() bool {
	return s.TokenSwap == nil && s.Serum == nil
}

func deref(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v
}

// Split decomposes the response into typed per-provider routes. The first
// distribution of each provider type wins.
func (r *Response) Split() Split {
	var out Split
	for _, d := range r.Distributions {
		switch d.ProviderType {
		case pools.KindTokenSwap:
			if out.TokenSwap == nil {
				out.TokenSwap = &TokenSwapRoute{AmountIn: d.AmountIn, AmountOut: d.AmountOut}
			}
		case pools.KindSerum:
			if out.Serum == nil {
				out.Serum = &SerumRoute{
					AmountIn:   d.AmountIn,
					AmountOut:  d.AmountOut,
					LimitPrice: deref(d.LimitPrice),
					MaxCoinQty: deref(d.MaxCoinQty),
					MaxPcQty:   deref(d.MaxPcQty),
				}
			}
		}
	}
	return out
}
