package settings

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// MaxSlippageBps is the highest slippage tolerance a wallet may configure (50%).
const MaxSlippageBps = 5000

// DefaultWallet keys the settings used when no wallet is connected.
const DefaultWallet = "default"

var (
	ErrInvalidWallet   = errors.New("invalid wallet key")
	ErrInvalidSlippage = errors.New("invalid slippage")
)

var walletRe = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,128}$`)

type Settings struct {
	Wallet      string    `json:"wallet"`
	SlippageBps uint16    `json:"slippage_bps"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// Store persists per-wallet trade settings. Get returns the default settings
// for a wallet that has none stored.
type Store interface {
	Get(ctx context.Context, wallet string) (*Settings, error)
	SetSlippage(ctx context.Context, wallet string, bps uint16) (*Settings, error)
}

func normalizeWallet(wallet string) (string, error) {
	if wallet == "" {
		return DefaultWallet, nil
	}
	if !walletRe.MatchString(wallet) {
		return "", ErrInvalidWallet
	}
	return wallet, nil
}

func ValidateSlippage(bps uint16) error {
	if bps == 0 || bps > MaxSlippageBps {
		return fmt.Errorf("%w: must be between 1 and %d bps", ErrInvalidSlippage, MaxSlippageBps)
	}
	return nil
}
