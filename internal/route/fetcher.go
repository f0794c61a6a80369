package route

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/onesol-trade/internal/currency"
	"github.com/aman-zulfiqar/onesol-trade/internal/distribution"
	"github.com/aman-zulfiqar/onesol-trade/internal/metrics"
	"github.com/aman-zulfiqar/onesol-trade/internal/pools"
	"github.com/aman-zulfiqar/onesol-trade/internal/tokens"
)

// Quoter returns a route distribution for a request.
type Quoter interface {
	Distribution(ctx context.Context, req distribution.Request) (*distribution.Response, error)
}

type Config struct {
	Tokens    *tokens.Registry
	Providers *pools.Registry
	Quoter    Quoter
	ChainID   int
	Timeout   time.Duration
	Logger    *logrus.Logger
}

// Leg is one provider's portion of the current route, in human units.
type Leg struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Input    string `json:"input"`
	Output   string `json:"output"`
}

// State is the fetcher's view of the current route.
type State struct {
	Loading    bool                 `json:"loading"`
	Routes     []Leg                `json:"routes"`
	Split      distribution.Split   `json:"split"`
	Pool       *pools.TokenSwapPool `json:"-"`
	Market     *pools.SerumMarket   `json:"-"`
	LastError  string               `json:"last_error,omitempty"`
	QuotedAt   time.Time            `json:"quoted_at,omitempty"`
	Generation uint64               `json:"generation"`
}

// Fetcher keeps leg B of a pair priced against leg A. The pair and all
// fetcher state are guarded by the Locker passed to New: Refresh and State
// must be called with it held, Wait without.
type Fetcher struct {
	cfg  Config
	lock sync.Locker
	pair *currency.Pair
	base context.Context
	log  *logrus.Logger

	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
	state  State
}

func New(ctx context.Context, lock sync.Locker, pair *currency.Pair, cfg Config) *Fetcher {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &Fetcher{cfg: cfg, lock: lock, pair: pair, base: ctx, log: cfg.Logger}
}

// Refresh re-evaluates the pair after a change to leg A's amount or either
// mint. Any request in flight is cancelled first. It reports whether a new
// quote request was issued.
func (f *Fetcher) Refresh() bool {
	f.gen++
	gen := f.gen
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}

	a, b := &f.pair.A, &f.pair.B
	if !currency.IsPositive(a.Amount) {
		f.state.Loading = false
	}
	if f.pair.ShouldOverwrite(currency.SideB) {
		b.SetAmount(currency.ZeroAmount)
	}
	f.state.Routes = nil
	f.state.Split = distribution.Split{}
	f.state.LastError = ""
	f.state.Generation = gen
	f.state.Pool = f.cfg.Providers.FindPool(a.MintAddress, b.MintAddress)
	f.state.Market = f.cfg.Providers.FindMarket(a.MintAddress, b.MintAddress)

	req, ok := f.request(a, b)
	if !ok {
		f.state.Loading = false
		metrics.QuoteRequestsTotal.WithLabelValues(metrics.QuoteSkipped).Inc()
		return false
	}

	ctx, cancel := context.WithTimeout(f.base, f.cfg.Timeout)
	done := make(chan struct{})
	f.cancel = cancel
	f.done = done
	f.state.Loading = true

	go f.fetch(ctx, cancel, gen, req, a.MintAddress, b.MintAddress, done)
	return true
}

func (f *Fetcher) request(a, b *currency.Leg) (distribution.Request, bool) {
	if a.MintAddress == "" || b.MintAddress == "" || a.MintAddress == b.MintAddress {
		return distribution.Request{}, false
	}
	if f.state.Pool == nil && f.state.Market == nil {
		return distribution.Request{}, false
	}
	if !currency.IsPositive(a.Amount) {
		return distribution.Request{}, false
	}
	decimals, err := f.cfg.Tokens.Decimals(a.MintAddress)
	if err != nil {
		f.log.WithError(err).Debug("skipping quote for unknown input mint")
		return distribution.Request{}, false
	}
	amountIn, err := currency.ToBaseUnits(a.Amount, decimals)
	if err != nil || amountIn == 0 {
		return distribution.Request{}, false
	}

	chainID := f.cfg.ChainID
	var providers []string
	if p := f.state.Pool; p != nil {
		providers = append(providers, p.ProviderAddress().String())
		if p.ChainID != 0 {
			chainID = p.ChainID
		}
	}
	if m := f.state.Market; m != nil {
		providers = append(providers, m.ProviderAddress().String())
		if f.state.Pool == nil && m.ChainID != 0 {
			chainID = m.ChainID
		}
	}

	return distribution.Request{
		AmountIn:                amountIn,
		ChainID:                 chainID,
		SourceTokenMintKey:      a.MintAddress,
		DestinationTokenMintKey: b.MintAddress,
		Providers:               providers,
	}, true
}

func (f *Fetcher) fetch(ctx context.Context, cancel context.CancelFunc, gen uint64, req distribution.Request, inMint, outMint string, done chan struct{}) {
	defer close(done)
	defer cancel()

	start := time.Now()
	resp, err := f.cfg.Quoter.Distribution(ctx, req)
	metrics.QuoteLatency.Observe(time.Since(start).Seconds())

	f.lock.Lock()
	defer f.lock.Unlock()

	logger := f.log.WithFields(logrus.Fields{
		"generation": gen,
		"input":      inMint,
		"output":     outMint,
		"amount_in":  req.AmountIn,
	})

	if gen != f.gen {
		metrics.QuoteRequestsTotal.WithLabelValues(metrics.QuoteSuperseded).Inc()
		logger.Debug("dropping superseded quote")
		return
	}
	f.cancel = nil

	if err != nil {
		metrics.QuoteRequestsTotal.WithLabelValues(metrics.QuoteFailed).Inc()
		f.state.Loading = false
		f.state.LastError = err.Error()
		logger.WithError(err).Warn("distribution request failed")
		return
	}

	if err := f.apply(resp, inMint, outMint); err != nil {
		metrics.QuoteRequestsTotal.WithLabelValues(metrics.QuoteFailed).Inc()
		f.state.Loading = false
		f.state.LastError = err.Error()
		logger.WithError(err).Warn("could not apply distribution")
		return
	}

	metrics.QuoteRequestsTotal.WithLabelValues(metrics.QuoteApplied).Inc()
	logger.WithField("amount_out", resp.AmountOut).Debug("quote applied")
}

func (f *Fetcher) apply(resp *distribution.Response, inMint, outMint string) error {
	inDecimals, err := f.cfg.Tokens.Decimals(inMint)
	if err != nil {
		return err
	}
	outDecimals, err := f.cfg.Tokens.Decimals(outMint)
	if err != nil {
		return err
	}

	split := resp.Split()
	if f.state.Pool == nil {
		split.TokenSwap = nil
	}
	if f.state.Market == nil {
		split.Serum = nil
	}
	if split.Empty() {
		return fmt.Errorf("distribution has no usable routes")
	}

	var routes []Leg
	if r := split.TokenSwap; r != nil {
		routes = append(routes, Leg{
			Name:     "Token Swap",
			Provider: f.state.Pool.DisplayName(),
			Input:    currency.FromBaseUnits(r.AmountIn, inDecimals),
			Output:   currency.FromBaseUnits(r.AmountOut, outDecimals),
		})
	}
	if r := split.Serum; r != nil {
		routes = append(routes, Leg{
			Name:     "Serum Dex",
			Provider: f.state.Market.DisplayName(),
			Input:    currency.FromBaseUnits(r.AmountIn, inDecimals),
			Output:   currency.FromBaseUnits(r.AmountOut, outDecimals),
		})
	}

	if f.pair.ShouldOverwrite(currency.SideB) {
		f.pair.B.SetAmount(currency.FromBaseUnits(resp.AmountOut, outDecimals))
	}
	f.state.Split = split
	f.state.Routes = routes
	f.state.Loading = false
	f.state.LastError = ""
	f.state.QuotedAt = time.Now().UTC()
	return nil
}

// State returns a copy of the current route state.
func (f *Fetcher) State() State {
	s := f.state
	s.Routes = append([]Leg(nil), f.state.Routes...)
	return s
}

// Wait blocks until the latest request settles or ctx ends.
func (f *Fetcher) Wait(ctx context.Context) error {
	f.lock.Lock()
	done := f.done
	f.lock.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels any request in flight.
func (f *Fetcher) Stop() {
	f.gen++
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.state.Loading = false
}
