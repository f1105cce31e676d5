// Package valueinterp converts asset amounts into one another.
package valueinterp

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RateUnit is the precision of every normalized rate (18 decimals).
var RateUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Interpreter values an amount of one asset in units of another.
type Interpreter interface {
	CalcCanonicalAssetValue(ctx context.Context, baseAsset common.Address, amount *big.Int, quoteAsset common.Address) (*big.Int, error)
	IsSupportedAsset(asset common.Address) bool
}

// UnitSource resolves 10^decimals of an asset.
type UnitSource interface {
	Unit(asset common.Address) (*big.Int, error)
}

// convert computes amount*baseRate/baseUnit*quoteUnit/quoteRate in one rounding step.
func convert(amount, baseRate, baseUnit, quoteRate, quoteUnit *big.Int) *big.Int {
	num := new(big.Int).Mul(amount, baseRate)
	num.Mul(num, quoteUnit)
	den := new(big.Int).Mul(baseUnit, quoteRate)
	return num.Quo(num, den)
}
