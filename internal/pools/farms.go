package pools

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

type FarmConfig struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Pool    string `json:"pool"`
	MintA   string `json:"token_mint_a"`
	MintB   string `json:"token_mint_b"`
}

// Farm is a liquidity-mining farm backed by a two-token pool.
type Farm struct {
	Address solana.PublicKey
	Name    string
	Pool    solana.PublicKey
	MintA   solana.PublicKey
	MintB   solana.PublicKey
}

type Farms struct {
	items []Farm
}

func LoadFarmsFromJSON(path string) (*Farms, error) {
	var configs []FarmConfig
	if err := readJSON(path, &configs); err != nil {
		return nil, fmt.Errorf("failed to load farms: %w", err)
	}

	items := make([]Farm, 0, len(configs))
	for i, cfg := range configs {
		var p keyParser
		f := Farm{
			Address: p.key("address", cfg.Address),
			Name:    cfg.Name,
			Pool:    p.key("pool", cfg.Pool),
			MintA:   p.key("token_mint_a", cfg.MintA),
			MintB:   p.key("token_mint_b", cfg.MintB),
		}
		if p.err != nil {
			return nil, fmt.Errorf("farm %d (%s): %w", i, cfg.Name, p.err)
		}
		items = append(items, f)
	}
	return &Farms{items: items}, nil
}

func NewFarms(items []Farm) *Farms { return &Farms{items: items} }

// Find looks a farm up by its base58 address.
func (f *Farms) Find(address string) (*Farm, bool) {
	for i := range f.items {
		if f.items[i].Address.String() == address {
			return &f.items[i], true
		}
	}
	return nil, false
}

func (f *Farms) All() []Farm { return f.items }
