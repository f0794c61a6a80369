package currency

import (
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/onesol-trade/internal/tokens"
)

// TokenAccount is a wallet-owned SPL token account.
type TokenAccount struct {
	Address  solana.PublicKey `json:"address"`
	Mint     string           `json:"mint"`
	Amount   uint64           `json:"amount"`
	Decimals uint8            `json:"decimals"`
}

// Leg is one side of a currency pair.
type Leg struct {
	MintAddress string        `json:"mint_address"`
	Amount      string        `json:"amount"`
	Decimals    uint8         `json:"decimals"`
	Account     *TokenAccount `json:"account,omitempty"`
}

// SetMint selects a new mint. Derived account data belongs to the old mint and is dropped.
func (l *Leg) SetMint(mint string, decimals uint8) {
	if l.MintAddress == mint {
		return
	}
	l.MintAddress = mint
	l.Decimals = decimals
	l.Account = nil
}

func (l *Leg) SetAmount(amount string) {
	l.Amount = amount
}

// Balance is the human-unit balance of the leg's token account, zero without one.
func (l *Leg) Balance() decimal.Decimal {
	if l.Account == nil {
		return decimal.Zero
	}
	return UnitsToDecimal(l.Account.Amount, l.Account.Decimals)
}

// ConvertAmount returns the amount in base units, or 0 when it does not parse.
func (l *Leg) ConvertAmount() uint64 {
	units, err := ToBaseUnits(l.Amount, l.Decimals)
	if err != nil {
		return 0
	}
	return units
}

// SufficientBalance reports whether a positive amount is covered by the balance.
func (l *Leg) SufficientBalance() bool {
	d, ok := ParseAmount(l.Amount)
	if !ok || !d.IsPositive() {
		return false
	}
	return l.Balance().GreaterThanOrEqual(d)
}

// MaxAmount is the amount the max shortcut fills in for this leg.
func (l *Leg) MaxAmount() string {
	return FormatAmount(MaxAmount(l.MintAddress, l.Balance()))
}

// FeeReserve is kept back from wrapped SOL balances to pay network fees.
var FeeReserve = decimal.RequireFromString("0.05")

// MaxAmount returns the usable balance: wrapped SOL keeps FeeReserve back
// (clamped at zero), every other mint uses the full balance.
func MaxAmount(mint string, balance decimal.Decimal) decimal.Decimal {
	if mint != tokens.WrappedSOLMint {
		return balance
	}
	left := balance.Sub(FeeReserve)
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}
