package tokens

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// WrappedSOLMint is the SPL mint of wrapped native SOL.
const WrappedSOLMint = "So11111111111111111111111111111111111111112"

// TokenInfo describes a mint known to the trading UI.
type TokenInfo struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
}

// Default mainnet tokens, used when no registry file is configured.
var Default = []TokenInfo{
	{Address: WrappedSOLMint, Symbol: "SOL", Name: "Wrapped SOL", Decimals: 9},
	{Address: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Symbol: "USDC", Name: "USD Coin", Decimals: 6},
	{Address: "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", Symbol: "USDT", Name: "USDT", Decimals: 6},
	{Address: "mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So", Symbol: "mSOL", Name: "Marinade staked SOL", Decimals: 9},
	{Address: "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R", Symbol: "RAY", Name: "Raydium", Decimals: 6},
	{Address: "SRMuApVNdxXokk5GT7XD5cUUgXMBCoAz2LHeuAoKWRt", Symbol: "SRM", Name: "Serum", Decimals: 6},
	{Address: "7vfCXTUXx5WJV5JADk17DUJ4ksgau7utNKj4b963voxs", Symbol: "ETH", Name: "Ether (Portal)", Decimals: 8},
	{Address: "3NZ9JMVBmGAqocybic2c7LQCJScmgsAZ6vQqTDzcqmJh", Symbol: "BTC", Name: "Wrapped BTC (Portal)", Decimals: 8},
}

// Registry maps mint addresses to token metadata. It is read-only after construction.
type Registry struct {
	byMint   map[string]TokenInfo
	bySymbol map[string]TokenInfo
}

func New(list []TokenInfo) (*Registry, error) {
	r := &Registry{
		byMint:   make(map[string]TokenInfo, len(list)),
		bySymbol: make(map[string]TokenInfo, len(list)),
	}
	for i, t := range list {
		t.Address = strings.TrimSpace(t.Address)
		if t.Address == "" {
			return nil, fmt.Errorf("token %d: address is required", i)
		}
		if _, dup := r.byMint[t.Address]; dup {
			return nil, fmt.Errorf("token %d: duplicate mint %s", i, t.Address)
		}
		r.byMint[t.Address] = t
		if t.Symbol != "" {
			r.bySymbol[strings.ToUpper(t.Symbol)] = t
		}
	}
	return r, nil
}

// LoadFromJSON reads a JSON array of TokenInfo. An empty path yields the Default list.
func LoadFromJSON(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return New(Default)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token registry: %w", err)
	}
	var list []TokenInfo
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse token registry: %w", err)
	}
	return New(list)
}

func (r *Registry) Get(mint string) (TokenInfo, bool) {
	t, ok := r.byMint[mint]
	return t, ok
}

// BySymbol looks a token up case-insensitively.
func (r *Registry) BySymbol(symbol string) (TokenInfo, bool) {
	t, ok := r.bySymbol[strings.ToUpper(strings.TrimSpace(symbol))]
	return t, ok
}

// Resolve accepts either a mint address or a symbol.
func (r *Registry) Resolve(mintOrSymbol string) (TokenInfo, bool) {
	if t, ok := r.Get(mintOrSymbol); ok {
		return t, true
	}
	return r.BySymbol(mintOrSymbol)
}

func (r *Registry) Decimals(mint string) (uint8, error) {
	t, ok := r.byMint[mint]
	if !ok {
		return 0, fmt.Errorf("unknown mint %s", mint)
	}
	return t.Decimals, nil
}

// Name returns the symbol for known mints and a shortened address otherwise.
func (r *Registry) Name(mint string) string {
	if t, ok := r.byMint[mint]; ok && t.Symbol != "" {
		return t.Symbol
	}
	return ShortenAddress(mint)
}

// All returns tokens sorted by symbol.
func (r *Registry) All() []TokenInfo {
	out := make([]TokenInfo, 0, len(r.byMint))
	for _, t := range r.byMint {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func ShortenAddress(addr string) string {
	if len(addr) <= 8 {
		return addr
	}
	return addr[:4] + "..." + addr[len(addr)-4:]
}
