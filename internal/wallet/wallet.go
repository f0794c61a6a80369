package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/onesol-trade/internal/currency"
	projectrpc "github.com/aman-zulfiqar/onesol-trade/internal/rpc"
	"github.com/aman-zulfiqar/onesol-trade/internal/tokens"
)

// ErrNotConnected is returned by operations that need a signing key when none is configured.
var ErrNotConnected = errors.New("wallet not connected")

type WalletConfig struct {
	RPCURL       string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	PrivateKey string // base58-encoded 64-byte key OR solana-keygen JSON array; empty means disconnected

	DefaultCommitment   string // e.g. "confirmed"
	SkipPreflight       bool
	PreflightCommitment string // e.g. "processed"

	Logger *logrus.Logger
}

type Wallet struct {
	cfg       WalletConfig
	rpc       *projectrpc.Client
	priv      solana.PrivateKey
	pub       solana.PublicKey
	connected bool
}

// NewWallet builds a wallet. Without a private key the wallet is returned
// disconnected: read-only helpers that need an owner and all signing
// operations fail with ErrNotConnected.
func NewWallet(cfg WalletConfig) (*Wallet, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("wallet: RPCURL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 1 * time.Second
	}
	if cfg.DefaultCommitment == "" {
		cfg.DefaultCommitment = "confirmed"
	}
	if cfg.PreflightCommitment == "" {
		cfg.PreflightCommitment = "processed"
	}

	w := &Wallet{
		cfg: cfg,
		rpc: projectrpc.NewClient(projectrpc.ClientConfig{
			Endpoint:     cfg.RPCURL,
			Timeout:      cfg.Timeout,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
			Logger:       cfg.Logger,
		}),
	}

	if strings.TrimSpace(cfg.PrivateKey) == "" {
		return w, nil
	}

	priv, err := parsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	w.priv = priv
	w.pub = priv.PublicKey()
	w.connected = true
	return w, nil
}

func (w *Wallet) Connected() bool             { return w.connected }
func (w *Wallet) PublicKey() solana.PublicKey { return w.pub }
func (w *Wallet) Close() error                { return nil }

func (w *Wallet) Address() string {
	if !w.connected {
		return ""
	}
	return w.pub.String()
}

// GetBalance returns the wallet's native balance in lamports.
func (w *Wallet) GetBalance(ctx context.Context) (uint64, error) {
	if !w.connected {
		return 0, ErrNotConnected
	}
	return w.rpc.GetBalance(ctx, w.pub.String(), w.cfg.DefaultCommitment)
}

// AccountExists checks if an account exists on-chain (getAccountInfo != nil).
func (w *Wallet) AccountExists(ctx context.Context, pubkey solana.PublicKey) (bool, error) {
	return w.rpc.AccountExists(ctx, pubkey.String(), w.cfg.DefaultCommitment)
}

// TokenAccounts lists the wallet's SPL token accounts. The native SOL balance
// is reported first as a wrapped-SOL account addressed by the wallet itself.
func (w *Wallet) TokenAccounts(ctx context.Context) ([]currency.TokenAccount, error) {
	if !w.connected {
		return nil, ErrNotConnected
	}

	lamports, err := w.GetBalance(ctx)
	if err != nil {
		return nil, err
	}
	out := []currency.TokenAccount{{
		Address:  w.pub,
		Mint:     tokens.WrappedSOLMint,
		Amount:   lamports,
		Decimals: 9,
	}}

	parsed, err := w.rpc.GetTokenAccountsByOwner(ctx, w.pub.String(), solana.TokenProgramID.String(), w.cfg.DefaultCommitment)
	if err != nil {
		return nil, err
	}
	for _, p := range parsed {
		acct, err := toTokenAccount(p)
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, nil
}

func toTokenAccount(p projectrpc.ParsedTokenAccount) (currency.TokenAccount, error) {
	addr, err := solana.PublicKeyFromBase58(p.Pubkey)
	if err != nil {
		return currency.TokenAccount{}, fmt.Errorf("token account %q: %w", p.Pubkey, err)
	}
	amt := p.Amount()
	units, err := strconv.ParseUint(amt.Amount, 10, 64)
	if err != nil {
		return currency.TokenAccount{}, fmt.Errorf("token account %s: invalid amount %q", p.Pubkey, amt.Amount)
	}
	if amt.Decimals < 0 || amt.Decimals > 255 {
		return currency.TokenAccount{}, fmt.Errorf("token account %s: invalid decimals %d", p.Pubkey, amt.Decimals)
	}
	return currency.TokenAccount{
		Address:  addr,
		Mint:     p.Mint(),
		Amount:   units,
		Decimals: uint8(amt.Decimals),
	}, nil
}

func parsePrivateKey(s string) (solana.PrivateKey, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(s), &ints); err != nil {
			return nil, fmt.Errorf("wallet: invalid JSON private key: %w", err)
		}
		b := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("wallet: invalid byte at %d: %d", i, v)
			}
			b[i] = byte(v)
		}
		if len(b) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("wallet: expected %d bytes, got %d", ed25519.PrivateKeySize, len(b))
		}
		return solana.PrivateKey(ed25519.PrivateKey(b)), nil
	}

	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("wallet: invalid base58 private key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("wallet: expected %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	return solana.PrivateKey(ed25519.PrivateKey(raw)), nil
}
