package farm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/onesol-trade/internal/currency"
	"github.com/aman-zulfiqar/onesol-trade/internal/pools"
	"github.com/aman-zulfiqar/onesol-trade/internal/tokens"
	"github.com/aman-zulfiqar/onesol-trade/internal/wallet"
)

var (
	ErrFarmNotFound       = errors.New("farm not found")
	ErrDepositUnavailable = errors.New("farm deposits are not available yet")
)

const (
	DepositLabel = "Deposit"
	ConnectLabel = "Connect"
)

// Wallet is the read side of the connected wallet.
type Wallet interface {
	Connected() bool
	TokenAccounts(ctx context.Context) ([]currency.TokenAccount, error)
}

type Config struct {
	Tokens *tokens.Registry
	Farms  *pools.Farms
	Wallet Wallet
	Logger *logrus.Logger
}

// Page is the deposit form of one farm: a base and a quote leg.
type Page struct {
	cfg  Config
	farm pools.Farm
	log  *logrus.Logger

	mu       sync.Mutex
	base     currency.Leg
	quote    currency.Leg
	accounts []currency.TokenAccount
}

// NewPage opens the farm at address. A pool mint missing from the token
// registry leaves its leg unselected.
func NewPage(cfg Config, address string) (*Page, error) {
	if cfg.Tokens == nil || cfg.Farms == nil || cfg.Wallet == nil {
		return nil, fmt.Errorf("tokens, farms and wallet are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	f, ok := cfg.Farms.Find(address)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFarmNotFound, address)
	}

	p := &Page{cfg: cfg, farm: *f, log: cfg.Logger}
	if t, ok := cfg.Tokens.Get(f.MintA.String()); ok {
		p.base.SetMint(t.Address, t.Decimals)
	}
	if t, ok := cfg.Tokens.Get(f.MintB.String()); ok {
		p.quote.SetMint(t.Address, t.Decimals)
	}
	return p, nil
}

func (p *Page) Farm() pools.Farm { return p.farm }

func (p *Page) InputBase(val string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base.SetAmount(val)
}

func (p *Page) InputQuote(val string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quote.SetAmount(val)
}

// MaxBase fills the base leg with its usable balance.
func (p *Page) MaxBase() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	amount := p.base.MaxAmount()
	p.base.SetAmount(amount)
	return amount
}

// MaxQuote fills the quote leg with its usable balance.
func (p *Page) MaxQuote() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	amount := p.quote.MaxAmount()
	p.quote.SetAmount(amount)
	return amount
}

// RefreshAccounts reloads wallet balances for both legs.
func (p *Page) RefreshAccounts(ctx context.Context) error {
	var accounts []currency.TokenAccount
	if p.cfg.Wallet.Connected() {
		var err error
		accounts, err = p.cfg.Wallet.TokenAccounts(ctx)
		if err != nil {
			return fmt.Errorf("failed to load token accounts: %w", err)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts = accounts
	p.base.Account = p.accountFor(p.base.MintAddress)
	p.quote.Account = p.accountFor(p.quote.MintAddress)
	return nil
}

func (p *Page) accountFor(mint string) *currency.TokenAccount {
	if mint == "" {
		return nil
	}
	for _, a := range p.accounts {
		if a.Mint == mint {
			acct := a
			return &acct
		}
	}
	return nil
}

// Deposit is a placeholder until the farm program is wired: it reports
// ErrDepositUnavailable for a connected wallet.
func (p *Page) Deposit(context.Context) error {
	if !p.cfg.Wallet.Connected() {
		return wallet.ErrNotConnected
	}
	p.log.WithField("farm", p.farm.Address.String()).Debug("deposit requested")
	return ErrDepositUnavailable
}

// Close is a no-op; a farm page holds no background work.
func (p *Page) Close() {}

type LegView struct {
	currency.Leg
	Symbol  string `json:"symbol"`
	Balance string `json:"balance"`
}

type View struct {
	Address   string  `json:"address"`
	Name      string  `json:"name"`
	Title     string  `json:"title"`
	Base      LegView `json:"base"`
	Quote     LegView `json:"quote"`
	Connected bool    `json:"connected"`
	Label     string  `json:"label"`
}

func (p *Page) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	connected := p.cfg.Wallet.Connected()
	label := ConnectLabel
	if connected {
		label = DepositLabel
	}
	base, quote := p.legView(p.base), p.legView(p.quote)
	return View{
		Address:   p.farm.Address.String(),
		Name:      p.farm.Name,
		Title:     p.cfg.Tokens.Name(p.farm.MintA.String()) + "-" + p.cfg.Tokens.Name(p.farm.MintB.String()),
		Base:      base,
		Quote:     quote,
		Connected: connected,
		Label:     label,
	}
}

func (p *Page) legView(l currency.Leg) LegView {
	return LegView{
		Leg:     l,
		Symbol:  p.cfg.Tokens.Name(l.MintAddress),
		Balance: currency.FormatAmount(l.Balance()),
	}
}
