package dex

import (
	"math/big"
)

// ApplySlippage calculates minimum output with slippage tolerance
// slippageBps: basis points (e.g., 100 = 1%, 50 = 0.5%)
func ApplySlippage(amountOut uint64, slippageBps uint16) uint64 {
	if slippageBps >= 10000 {
		return 0
	}

	// minOut = amountOut * (10000 - slippageBps) / 10000
	result := new(big.Int).Mul(
		new(big.Int).SetUint64(amountOut),
		new(big.Int).SetUint64(10000-uint64(slippageBps)),
	)
	result.Div(result, big.NewInt(10000))
	return result.Uint64()
}

// FeeBps converts a pool's fee numerator/denominator to basis points
func FeeBps(feeNumerator, feeDenominator uint64) uint16 {
	if feeDenominator == 0 {
		return 0
	}
	return uint16((feeNumerator * 10000) / feeDenominator)
}
