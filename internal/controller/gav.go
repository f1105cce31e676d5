package controller

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"fundCore/internal/errs"
	"fundCore/internal/fund"
)

// CalcGav values every tracked balance and active external position in the
// denomination asset. With bestEffort an unpriceable holding is skipped and
// the result is reported invalid instead of failing.
func (c *Controller) CalcGav(ctx context.Context, bestEffort bool) (*big.Int, bool, error) {
	const op = "calc gav"
	v := c.vault.Get()
	if v == nil {
		return nil, false, errs.E(errs.KindInvalidConfiguration, op, "vault not set")
	}
	gav := new(big.Int)
	valid := true

	value := func(asset common.Address, amount *big.Int) (*big.Int, error) {
		if amount.Sign() == 0 {
			return new(big.Int), nil
		}
		if asset == c.denomination {
			return new(big.Int).Set(amount), nil
		}
		out, err := c.values.CalcCanonicalAssetValue(ctx, asset, amount, c.denomination)
		if err != nil && bestEffort {
			valid = false
			return new(big.Int), nil
		}
		return out, err
	}

	for _, asset := range v.TrackedAssets() {
		out, err := value(asset, v.AssetBalance(asset))
		if err != nil {
			return nil, false, err
		}
		gav.Add(gav, out)
	}

	if c.ext.Positions == nil {
		return gav, valid, nil
	}
	for _, addr := range v.ActiveExternalPositions() {
		pos, ok := c.ext.Positions.Position(addr)
		if !ok {
			continue
		}
		managed, err := c.positionSide(pos.ManagedAssets, value)
		if err != nil {
			return nil, false, err
		}
		debt, err := c.positionSide(pos.DebtAssets, value)
		if err != nil {
			return nil, false, err
		}
		if managed.Cmp(debt) > 0 {
			gav.Add(gav, managed.Sub(managed, debt))
		}
	}
	return gav, valid, nil
}

func (c *Controller) positionSide(read func() ([]common.Address, []*big.Int, error), value func(common.Address, *big.Int) (*big.Int, error)) (*big.Int, error) {
	assets, amounts, err := read()
	if err != nil {
		return nil, err
	}
	if len(assets) != len(amounts) {
		return nil, errs.E(errs.KindInvalidConfiguration, "value external position", "%d assets, %d amounts", len(assets), len(amounts))
	}
	total := new(big.Int)
	for i, asset := range assets {
		out, err := value(asset, amounts[i])
		if err != nil {
			return nil, err
		}
		total.Add(total, out)
	}
	return total, nil
}

// CalcGrossShareValue returns the value of one share in the denomination asset.
func (c *Controller) CalcGrossShareValue(ctx context.Context) (*big.Int, error) {
	gav, _, err := c.CalcGav(ctx, false)
	if err != nil {
		return nil, err
	}
	unit, err := c.tokens.Unit(c.denomination)
	if err != nil {
		return nil, err
	}
	return grossShareValue(gav, c.vault.Get().TotalSupply(), unit), nil
}

// grossShareValue is gav per whole share, or one denomination unit with no supply.
func grossShareValue(gav, supply, unit *big.Int) *big.Int {
	if supply.Sign() == 0 {
		return new(big.Int).Set(unit)
	}
	return fund.MulDiv(gav, fund.SharesUnit, supply)
}
