package swap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/onesol-trade/internal/dex"
	"github.com/aman-zulfiqar/onesol-trade/internal/distribution"
	"github.com/aman-zulfiqar/onesol-trade/internal/history"
	"github.com/aman-zulfiqar/onesol-trade/internal/metrics"
	"github.com/aman-zulfiqar/onesol-trade/internal/models"
	"github.com/aman-zulfiqar/onesol-trade/internal/pools"
	"github.com/aman-zulfiqar/onesol-trade/internal/tokens"
	"github.com/aman-zulfiqar/onesol-trade/internal/wallet"
)

var (
	ErrNoRoute       = errors.New("no pool or market route to swap through")
	ErrAccountExists = errors.New("token account already exists")
)

// Signer is the wallet surface the executor needs.
type Signer interface {
	AccountChecker
	Connected() bool
	PublicKey() solana.PublicKey
	BuildTransaction(ctx context.Context, instructions []solana.Instruction) (*solana.Transaction, error)
	SignTx(tx *solana.Transaction) error
	SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*wallet.SimulationResult, error)
	SendTx(ctx context.Context, tx *solana.Transaction, opts *wallet.SendOptions) (string, error)
	ConfirmTransaction(ctx context.Context, signature, commitment string, timeout time.Duration) error
}

type Config struct {
	RequireSimulation bool
	ConfirmTimeout    time.Duration
	Commitment        string
	Logger            *logrus.Logger
}

type Executor struct {
	signer  Signer
	tokens  *tokens.Registry
	history history.Store
	cfg     Config
	log     *logrus.Logger
}

func NewExecutor(signer Signer, reg *tokens.Registry, hist history.Store, cfg Config) *Executor {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 60 * time.Second
	}
	if cfg.Commitment == "" {
		cfg.Commitment = "confirmed"
	}
	if hist == nil {
		hist = history.Nop{}
	}
	return &Executor{signer: signer, tokens: reg, history: hist, cfg: cfg, log: cfg.Logger}
}

// Order is a swap of AmountIn base units of InputMint, split across the
// routes a quote returned.
type Order struct {
	InputMint    solana.PublicKey
	OutputMint   solana.PublicKey
	InputAccount *solana.PublicKey // wallet's source token account; ATA when nil
	AmountIn     uint64
	AmountOut    uint64 // quoted total
	Pool         *pools.TokenSwapPool
	Market       *pools.SerumMarket
	Split        distribution.Split
	SlippageBps  uint16
}

func (o *Order) validate() error {
	if o.AmountIn == 0 {
		return fmt.Errorf("amount in must be > 0")
	}
	if o.InputMint.IsZero() || o.OutputMint.IsZero() {
		return fmt.Errorf("input and output mint required")
	}
	if o.InputMint.Equals(o.OutputMint) {
		return fmt.Errorf("input and output mint must differ")
	}
	if !o.hasTokenSwap() && !o.hasSerum() {
		return ErrNoRoute
	}
	return nil
}

func (o *Order) hasTokenSwap() bool { return o.Pool != nil && o.Split.TokenSwap != nil }
func (o *Order) hasSerum() bool     { return o.Market != nil && o.Split.Serum != nil }

type Result struct {
	Signature    string        `json:"signature"`
	Instructions int           `json:"instructions"`
	Trade        *models.Trade `json:"trade"`
	Duration     time.Duration `json:"duration"`
}

// Swap builds, signs, submits and confirms one transaction carrying every leg of the order.
func (e *Executor) Swap(ctx context.Context, order Order) (*Result, error) {
	start := time.Now()
	res, err := e.swap(ctx, order)
	if err != nil {
		metrics.SwapsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.SwapsTotal.WithLabelValues("confirmed").Inc()
	res.Duration = time.Since(start)
	return res, nil
}

func (e *Executor) swap(ctx context.Context, order Order) (*Result, error) {
	if !e.signer.Connected() {
		return nil, wallet.ErrNotConnected
	}
	if err := order.validate(); err != nil {
		return nil, err
	}
	owner := e.signer.PublicKey()

	ixs, err := e.instructions(ctx, owner, order)
	if err != nil {
		return nil, err
	}

	sig, err := e.submit(ctx, ixs)
	if err != nil {
		return nil, err
	}

	trade := e.trade(owner, sig, order)
	if err := e.history.InsertTrade(ctx, trade); err != nil {
		e.log.WithError(err).WithField("signature", sig).Warn("failed to record trade")
	}

	e.log.WithFields(logrus.Fields{
		"signature": sig,
		"pair":      trade.Pair,
		"amount_in": order.AmountIn,
		"providers": strings.Join(trade.Providers, ","),
	}).Info("swap confirmed")

	return &Result{Signature: sig, Instructions: len(ixs), Trade: trade}, nil
}

func (e *Executor) instructions(ctx context.Context, owner solana.PublicKey, order Order) ([]solana.Instruction, error) {
	wsol := solana.MustPublicKeyFromBase58(tokens.WrappedSOLMint)

	var in *ResolvedTokenAccount
	switch {
	case order.InputMint.Equals(wsol):
		r, err := ResolveAssociatedAccount(ctx, e.signer, owner, wsol)
		if err != nil {
			return nil, err
		}
		in = r
	case order.InputAccount != nil && !order.InputAccount.IsZero():
		in = &ResolvedTokenAccount{Account: *order.InputAccount}
	default:
		r, err := ResolveAssociatedAccount(ctx, e.signer, owner, order.InputMint)
		if err != nil {
			return nil, err
		}
		if r.Created {
			return nil, fmt.Errorf("no token account for input mint %s", order.InputMint)
		}
		in = r
	}

	out, err := ResolveAssociatedAccount(ctx, e.signer, owner, order.OutputMint)
	if err != nil {
		return nil, err
	}

	var pre, post []solana.Instruction
	pre = append(pre, in.PreIxs...)
	pre = append(pre, out.PreIxs...)

	if order.InputMint.Equals(wsol) {
		pre = append(pre, wrapSOLIxs(owner, in.Account, order.AmountIn)...)
		if in.Created {
			post = append(post, closeAccountIx(in.Account, owner))
		}
	}
	if order.OutputMint.Equals(wsol) && out.Created {
		post = append(post, closeAccountIx(out.Account, owner))
	}

	var legs []solana.Instruction
	if order.hasTokenSwap() {
		ix, err := tokenSwapIx(owner, in.Account, out.Account, order)
		if err != nil {
			return nil, err
		}
		legs = append(legs, ix)
	}
	if order.hasSerum() {
		ixs, err := serumIxs(owner, in.Account, out.Account, order)
		if err != nil {
			return nil, err
		}
		legs = append(legs, ixs...)
	}

	ixs := make([]solana.Instruction, 0, len(pre)+len(legs)+len(post))
	ixs = append(ixs, pre...)
	ixs = append(ixs, legs...)
	ixs = append(ixs, post...)
	return ixs, nil
}

func tokenSwapIx(owner, in, out solana.PublicKey, order Order) (solana.Instruction, error) {
	route := order.Split.TokenSwap
	aToB, err := dex.SwapDirection(order.Pool, order.InputMint)
	if err != nil {
		return nil, err
	}
	return dex.BuildTokenSwapInstruction(
		order.Pool,
		route.AmountIn,
		dex.ApplySlippage(route.AmountOut, order.SlippageBps),
		owner,
		in,
		out,
		aToB,
	)
}

func serumIxs(owner, in, out solana.PublicKey, order Order) ([]solana.Instruction, error) {
	route := order.Split.Serum
	side, err := dex.OrderSide(order.Market, order.InputMint)
	if err != nil {
		return nil, err
	}

	newOrder, err := dex.BuildNewOrderInstruction(order.Market, dex.Order{
		Side:           side,
		LimitPrice:     route.LimitPrice,
		MaxCoinQty:     route.MaxCoinQty,
		MaxNativePcQty: route.MaxPcQty,
		ClientOrderID:  uint64(time.Now().UnixNano()),
	}, owner, in)
	if err != nil {
		return nil, err
	}

	base, quote := in, out
	if side == dex.Bid {
		base, quote = out, in
	}
	settle, err := dex.BuildSettleFundsInstruction(order.Market, owner, base, quote)
	if err != nil {
		return nil, err
	}
	return []solana.Instruction{newOrder, settle}, nil
}

func (e *Executor) submit(ctx context.Context, ixs []solana.Instruction) (string, error) {
	tx, err := e.signer.BuildTransaction(ctx, ixs)
	if err != nil {
		return "", err
	}
	if err := e.signer.SignTx(tx); err != nil {
		return "", err
	}
	if e.cfg.RequireSimulation {
		if _, err := e.signer.SimulateTransaction(ctx, tx); err != nil {
			return "", err
		}
	}

	sig, err := e.signer.SendTx(ctx, tx, nil)
	if err != nil {
		return "", err
	}
	if err := e.signer.ConfirmTransaction(ctx, sig, e.cfg.Commitment, e.cfg.ConfirmTimeout); err != nil {
		return sig, fmt.Errorf("transaction %s not confirmed: %w", sig, err)
	}
	return sig, nil
}

func (e *Executor) trade(owner solana.PublicKey, sig string, order Order) *models.Trade {
	t := &models.Trade{
		Signature: sig,
		Timestamp: time.Now().UTC(),
		Wallet:    owner.String(),
		Pair:      e.symbol(order.InputMint) + "-" + e.symbol(order.OutputMint),
		MintIn:    order.InputMint.String(),
		MintOut:   order.OutputMint.String(),
		AmountIn:  order.AmountIn,
		AmountOut: order.AmountOut,
	}
	if order.hasTokenSwap() {
		t.Providers = append(t.Providers, string(pools.KindTokenSwap))
		t.Pool = order.Pool.DisplayName()
		t.MinOut += dex.ApplySlippage(order.Split.TokenSwap.AmountOut, order.SlippageBps)
	}
	if order.hasSerum() {
		t.Providers = append(t.Providers, string(pools.KindSerum))
		t.Market = order.Market.DisplayName()
		t.MinOut += order.Split.Serum.AmountOut
	}
	return t
}

func (e *Executor) symbol(mint solana.PublicKey) string {
	if e.tokens == nil {
		return tokens.ShortenAddress(mint.String())
	}
	return e.tokens.Name(mint.String())
}

// CreateTokenAccount creates the wallet's associated token account for mint
// in a single transaction.
func (e *Executor) CreateTokenAccount(ctx context.Context, mint solana.PublicKey) (string, error) {
	sig, err := e.createTokenAccount(ctx, mint)
	if err != nil {
		metrics.TokenAccountsTotal.WithLabelValues("failed").Inc()
		return "", err
	}
	metrics.TokenAccountsTotal.WithLabelValues("created").Inc()
	return sig, nil
}

func (e *Executor) createTokenAccount(ctx context.Context, mint solana.PublicKey) (string, error) {
	if !e.signer.Connected() {
		return "", wallet.ErrNotConnected
	}
	if mint.IsZero() {
		return "", fmt.Errorf("mint required")
	}
	owner := e.signer.PublicKey()

	r, err := ResolveAssociatedAccount(ctx, e.signer, owner, mint)
	if err != nil {
		return "", err
	}
	if !r.Created {
		return "", ErrAccountExists
	}

	sig, err := e.submit(ctx, r.PreIxs)
	if err != nil {
		return "", err
	}
	e.log.WithFields(logrus.Fields{
		"signature": sig,
		"mint":      mint.String(),
		"account":   r.Account.String(),
	}).Info("token account created")
	return sig, nil
}
