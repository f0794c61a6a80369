package currency

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ZeroAmount is what a computed leg displays while no quote is available.
const ZeroAmount = "0.00"

// ParseAmount parses user-entered decimal text.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// IsPositive reports whether s parses to a number greater than zero.
func IsPositive(s string) bool {
	d, ok := ParseAmount(s)
	return ok && d.IsPositive()
}

// ToBaseUnits scales a human amount by 10^decimals. Digits beyond the mint's
// precision are truncated.
func ToBaseUnits(amount string, decimals uint8) (uint64, error) {
	d, ok := ParseAmount(amount)
	if !ok {
		return 0, fmt.Errorf("invalid amount %q", amount)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount must not be negative: %s", amount)
	}
	units := d.Shift(int32(decimals)).Truncate(0).BigInt()
	if !units.IsUint64() {
		return 0, fmt.Errorf("amount %s overflows u64 at %d decimals", amount, decimals)
	}
	return units.Uint64(), nil
}

// FromBaseUnits converts integer base units back to decimal text.
func FromBaseUnits(units uint64, decimals uint8) string {
	return FormatAmount(UnitsToDecimal(units, decimals))
}

func UnitsToDecimal(units uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -int32(decimals))
}

// FormatAmount renders d without trailing zeros but always with a fractional part.
func FormatAmount(d decimal.Decimal) string {
	s := d.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
