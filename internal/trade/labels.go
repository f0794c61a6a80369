package trade

import (
	"fmt"

	"github.com/aman-zulfiqar/onesol-trade/internal/currency"
	"github.com/aman-zulfiqar/onesol-trade/internal/tokens"
)

const (
	ConnectLabel     = "Connect Wallet"
	SelectTokenLabel = "Select a token"
	EnterAmountLabel = "Enter an amount"
	SwapLabel        = "Swap"
)

func PoolNotAvailableLabel(a, b string) string {
	return fmt.Sprintf("Pool %s/%s doesn't exist", a, b)
}

func InsufficientFundsLabel(token string) string {
	return fmt.Sprintf("Insufficient %s funds", token)
}

// ActionLabel picks the text of the primary button. The first unmet
// precondition wins; action is shown only when every check passes.
// With ignoreToBalance the destination leg's balance is not checked.
func ActionLabel(action string, connected bool, reg *tokens.Registry, a, b *currency.Leg, ignoreToBalance bool) string {
	switch {
	case !connected:
		return ConnectLabel
	case a.MintAddress == "":
		return SelectTokenLabel
	case a.Amount == "":
		return EnterAmountLabel
	case b.MintAddress == "":
		return SelectTokenLabel
	case b.Amount == "":
		return EnterAmountLabel
	case !a.SufficientBalance():
		return InsufficientFundsLabel(tokenName(reg, a.MintAddress))
	case ignoreToBalance || b.SufficientBalance():
		return action
	default:
		return InsufficientFundsLabel(tokenName(reg, b.MintAddress))
	}
}

func tokenName(reg *tokens.Registry, mint string) string {
	if reg == nil {
		return tokens.ShortenAddress(mint)
	}
	return reg.Name(mint)
}
