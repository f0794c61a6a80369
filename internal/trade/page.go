package trade

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/onesol-trade/internal/currency"
	"github.com/aman-zulfiqar/onesol-trade/internal/notify"
	"github.com/aman-zulfiqar/onesol-trade/internal/pools"
	"github.com/aman-zulfiqar/onesol-trade/internal/route"
	"github.com/aman-zulfiqar/onesol-trade/internal/settings"
	"github.com/aman-zulfiqar/onesol-trade/internal/swap"
	"github.com/aman-zulfiqar/onesol-trade/internal/tokens"
	"github.com/aman-zulfiqar/onesol-trade/internal/wallet"
)

var (
	ErrUnknownMint = errors.New("unknown mint")
	ErrNotReady    = errors.New("trade is not ready to submit")
)

const DefaultSlippageBps uint16 = 50

// Wallet is the read side of the connected wallet.
type Wallet interface {
	Connected() bool
	Address() string
	TokenAccounts(ctx context.Context) ([]currency.TokenAccount, error)
}

// Swapper submits swaps and token account creations.
type Swapper interface {
	Swap(ctx context.Context, order swap.Order) (*swap.Result, error)
	CreateTokenAccount(ctx context.Context, mint solana.PublicKey) (string, error)
}

type Config struct {
	Tokens       *tokens.Registry
	Providers    *pools.Registry
	Quoter       route.Quoter
	ChainID      int
	QuoteTimeout time.Duration

	Wallet   Wallet
	Swapper  Swapper
	Settings settings.Store  // optional
	Notifier notify.Notifier // optional

	DefaultSlippageBps uint16

	// Initial selections, mint address or symbol. Empty leaves the leg unselected.
	MintA string
	MintB string

	Logger *logrus.Logger
}

// Page is one trade form: a currency pair kept priced by a route fetcher,
// plus the actions that submit it.
type Page struct {
	cfg Config
	log *logrus.Logger

	mu              sync.Mutex
	pair            *currency.Pair
	fetcher         *route.Fetcher
	accounts        []currency.TokenAccount
	hasTokenAccount bool

	guard swap.Guard
}

func NewPage(ctx context.Context, cfg Config) (*Page, error) {
	if cfg.Tokens == nil || cfg.Providers == nil || cfg.Quoter == nil {
		return nil, fmt.Errorf("tokens, providers and quoter are required")
	}
	if cfg.Wallet == nil || cfg.Swapper == nil {
		return nil, fmt.Errorf("wallet and swapper are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.DefaultSlippageBps == 0 {
		cfg.DefaultSlippageBps = DefaultSlippageBps
	}

	p := &Page{cfg: cfg, log: cfg.Logger, pair: currency.NewPair()}
	p.fetcher = route.New(ctx, &p.mu, p.pair, route.Config{
		Tokens:    cfg.Tokens,
		Providers: cfg.Providers,
		Quoter:    cfg.Quoter,
		ChainID:   cfg.ChainID,
		Timeout:   cfg.QuoteTimeout,
		Logger:    cfg.Logger,
	})

	for _, sel := range []struct {
		mint string
		leg  *currency.Leg
	}{{cfg.MintA, &p.pair.A}, {cfg.MintB, &p.pair.B}} {
		if sel.mint == "" {
			continue
		}
		t, err := p.resolve(sel.mint)
		if err != nil {
			return nil, err
		}
		sel.leg.SetMint(t.Address, t.Decimals)
	}

	p.mu.Lock()
	p.fetcher.Refresh()
	p.mu.Unlock()
	return p, nil
}

func (p *Page) resolve(mintOrSymbol string) (tokens.TokenInfo, error) {
	t, ok := p.cfg.Tokens.Resolve(mintOrSymbol)
	if !ok {
		return tokens.TokenInfo{}, fmt.Errorf("%w: %s", ErrUnknownMint, mintOrSymbol)
	}
	return t, nil
}

// SelectMintA selects the source token and requotes.
func (p *Page) SelectMintA(mintOrSymbol string) error {
	return p.selectMint(currency.SideA, mintOrSymbol)
}

// SelectMintB selects the destination token and requotes.
func (p *Page) SelectMintB(mintOrSymbol string) error {
	return p.selectMint(currency.SideB, mintOrSymbol)
}

func (p *Page) selectMint(side currency.Side, mintOrSymbol string) error {
	t, err := p.resolve(mintOrSymbol)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	leg := p.pair.Leg(side)
	if leg.MintAddress == t.Address {
		return nil
	}
	leg.SetMint(t.Address, t.Decimals)
	leg.Account = p.accountFor(t.Address)
	p.updateHasTokenAccount()
	p.fetcher.Refresh()
	return nil
}

// InputA handles typing into the source leg. A changed amount requotes.
func (p *Page) InputA(val string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inputA(val)
}

func (p *Page) inputA(val string) {
	changed := p.pair.A.Amount != val
	p.pair.InputChangeA(val)
	if changed {
		p.fetcher.Refresh()
	}
}

// InputB handles typing into the destination leg. The destination amount is
// an estimate, so no quote is requested for it.
func (p *Page) InputB(val string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pair.InputChangeB(val)
}

// Flip trades the legs' places and requotes.
func (p *Page) Flip() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pair.SwapSides()
	p.updateHasTokenAccount()
	p.fetcher.Refresh()
}

// MaxA fills the source leg with its usable balance and returns the amount.
func (p *Page) MaxA() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	amount := p.pair.A.MaxAmount()
	p.inputA(amount)
	return amount
}

// RefreshAccounts reloads the wallet's token accounts and reattaches them to
// both legs.
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
	p.pair.A.Account = p.accountFor(p.pair.A.MintAddress)
	p.pair.B.Account = p.accountFor(p.pair.B.MintAddress)
	p.updateHasTokenAccount()
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

func (p *Page) updateHasTokenAccount() {
	mint := p.pair.B.MintAddress
	_, known := p.cfg.Tokens.Get(mint)
	p.hasTokenAccount = p.cfg.Wallet.Connected() && known && p.accountFor(mint) != nil
}

// HandleSwap submits the current route. Failures are reported through the
// notifier and returned; the pending flag is cleared on every path.
func (p *Page) HandleSwap(ctx context.Context) (*swap.Result, error) {
	if !p.cfg.Wallet.Connected() {
		return nil, wallet.ErrNotConnected
	}

	p.mu.Lock()
	order, err := p.order()
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}

	release, err := p.guard.Begin()
	if err != nil {
		return nil, err
	}
	defer release()

	order.SlippageBps = p.slippage(ctx)

	res, err := p.cfg.Swapper.Swap(ctx, order)
	if err != nil {
		p.log.WithError(err).Warn("swap failed")
		p.notify(ctx, notify.Notification{
			Message:     "Swap trade cancelled.",
			Description: "Please try again and approve transactions from your wallet",
			Type:        notify.TypeError,
		})
		return nil, err
	}

	p.notify(ctx, notify.Notification{
		Message: "Swap executed.",
		Type:    notify.TypeSuccess,
		TxID:    res.Signature,
	})
	if err := p.RefreshAccounts(ctx); err != nil {
		p.log.WithError(err).Warn("failed to refresh token accounts after swap")
	}
	return res, nil
}

func (p *Page) order() (swap.Order, error) {
	a, b := &p.pair.A, &p.pair.B
	st := p.fetcher.State()
	if a.Amount == "" || b.MintAddress == "" || (st.Pool == nil && st.Market == nil) {
		return swap.Order{}, ErrNotReady
	}

	in, err := solana.PublicKeyFromBase58(a.MintAddress)
	if err != nil {
		return swap.Order{}, fmt.Errorf("invalid input mint: %w", err)
	}
	out, err := solana.PublicKeyFromBase58(b.MintAddress)
	if err != nil {
		return swap.Order{}, fmt.Errorf("invalid output mint: %w", err)
	}

	order := swap.Order{
		InputMint:  in,
		OutputMint: out,
		AmountIn:   a.ConvertAmount(),
		AmountOut:  b.ConvertAmount(),
		Pool:       st.Pool,
		Market:     st.Market,
		Split:      st.Split,
	}
	if a.Account != nil {
		acct := a.Account.Address
		order.InputAccount = &acct
	}
	return order, nil
}

func (p *Page) slippage(ctx context.Context) uint16 {
	if p.cfg.Settings == nil {
		return p.cfg.DefaultSlippageBps
	}
	s, err := p.cfg.Settings.Get(ctx, p.cfg.Wallet.Address())
	if err != nil {
		p.log.WithError(err).Warn("failed to load slippage, using default")
		return p.cfg.DefaultSlippageBps
	}
	return s.SlippageBps
}

// HandleCreateTokenAccount creates the wallet's account for the destination mint.
func (p *Page) HandleCreateTokenAccount(ctx context.Context) (string, error) {
	if !p.cfg.Wallet.Connected() {
		return "", wallet.ErrNotConnected
	}

	p.mu.Lock()
	hasSource := p.pair.A.Account != nil
	mint := p.pair.B.MintAddress
	p.mu.Unlock()
	if !hasSource || mint == "" {
		return "", ErrNotReady
	}
	pk, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return "", fmt.Errorf("invalid output mint: %w", err)
	}

	release, err := p.guard.Begin()
	if err != nil {
		return "", err
	}
	defer release()

	sig, err := p.cfg.Swapper.CreateTokenAccount(ctx, pk)
	if err != nil {
		p.log.WithError(err).Warn("token account creation failed")
		p.notify(ctx, notify.Notification{
			Message:     "Create account cancelled.",
			Description: "Please try again",
			Type:        notify.TypeError,
		})
		return "", err
	}

	p.mu.Lock()
	p.hasTokenAccount = true
	p.mu.Unlock()
	return sig, nil
}

func (p *Page) notify(ctx context.Context, n notify.Notification) {
	if p.cfg.Notifier == nil {
		return
	}
	n.Wallet = p.cfg.Wallet.Address()
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}
	if err := p.cfg.Notifier.Notify(ctx, n); err != nil {
		p.log.WithError(err).Warn("failed to deliver notification")
	}
}

// Wait blocks until the quote in flight settles.
func (p *Page) Wait(ctx context.Context) error {
	return p.fetcher.Wait(ctx)
}

// Close cancels any quote in flight.
func (p *Page) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetcher.Stop()
}
