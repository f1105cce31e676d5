package valueinterp

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"fundCore/internal/errs"
	"fundCore/internal/txn"
)

type staticRate struct {
	rate  *big.Int
	stale bool
}

// Static prices assets from rates set inside units of work.
// A rate is the value of one whole asset unit in a shared 18-decimal numeraire.
type Static struct {
	units UnitSource
	rates *txn.Map[common.Address, staticRate]
}

func NewStatic(units UnitSource) *Static {
	return &Static{units: units, rates: txn.NewMap[common.Address, staticRate]()}
}

func (s *Static) SetRate(tx *txn.Tx, asset common.Address, rate *big.Int) error {
	if rate == nil || rate.Sign() <= 0 {
		return errs.E(errs.KindInvalidConfiguration, "set rate", "rate for %s must be positive", asset.Hex())
	}
	if _, err := s.units.Unit(asset); err != nil {
		return err
	}
	s.rates.Set(tx, asset, staticRate{rate: new(big.Int).Set(rate)})
	return nil
}

// Invalidate marks the rate of asset as stale until it is set again.
func (s *Static) Invalidate(tx *txn.Tx, asset common.Address) {
	if r, ok := s.rates.Get(asset); ok {
		r.stale = true
		s.rates.Set(tx, asset, r)
	}
}

func (s *Static) Rate(asset common.Address) (*big.Int, bool) {
	r, ok := s.rates.Get(asset)
	if !ok || r.stale {
		return nil, false
	}
	return new(big.Int).Set(r.rate), true
}

func (s *Static) IsSupportedAsset(asset common.Address) bool {
	_, ok := s.rates.Get(asset)
	return ok
}

func (s *Static) CalcCanonicalAssetValue(_ context.Context, base common.Address, amount *big.Int, quote common.Address) (*big.Int, error) {
	const op = "calc canonical value"
	if amount.Sign() == 0 {
		return new(big.Int), nil
	}
	if base == quote {
		return new(big.Int).Set(amount), nil
	}
	baseRate, ok := s.Rate(base)
	if !ok {
		return nil, errs.E(errs.KindUnsupportedAsset, op, "no valid rate for %s", base.Hex())
	}
	quoteRate, ok := s.Rate(quote)
	if !ok {
		return nil, errs.E(errs.KindUnsupportedAsset, op, "no valid rate for %s", quote.Hex())
	}
	baseUnit, err := s.units.Unit(base)
	if err != nil {
		return nil, err
	}
	quoteUnit, err := s.units.Unit(quote)
	if err != nil {
		return nil, err
	}
	return convert(amount, baseRate, baseUnit, quoteRate, quoteUnit), nil
}
