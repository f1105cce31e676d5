package policy

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"fundCore/internal/errs"
	"fundCore/internal/fund"
	"fundCore/internal/model"
	"fundCore/internal/settings"
	"fundCore/internal/txn"
)

type investmentBounds struct {
	min *big.Int
	max *big.Int
}

// MinMaxInvestment bounds the denomination amount of a single purchase.
// Settings: (uint256 min, uint256 max); a zero max means unbounded.
type MinMaxInvestment struct {
	address common.Address
	bounds  *txn.Map[common.Address, investmentBounds]
}

func NewMinMaxInvestment(address common.Address) *MinMaxInvestment {
	return &MinMaxInvestment{address: address, bounds: txn.NewMap[common.Address, investmentBounds]()}
}

func (p *MinMaxInvestment) Address() common.Address        { return p.address }
func (p *MinMaxInvestment) Identifier() string             { return "MIN_MAX_INVESTMENT" }
func (p *MinMaxInvestment) ImplementedHooks() []model.Hook { return []model.Hook{model.HookPostBuyShares} }
func (p *MinMaxInvestment) CanDisable() bool               { return true }

func (p *MinMaxInvestment) AddFundSettings(tx *txn.Tx, f fund.Context, data []byte) error {
	return p.set(tx, f, data)
}

func (p *MinMaxInvestment) UpdateFundSettings(tx *txn.Tx, f fund.Context, data []byte) error {
	return p.set(tx, f, data)
}

func (p *MinMaxInvestment) DeactivateForFund(tx *txn.Tx, f fund.Context) {
	p.bounds.Delete(tx, f.Address())
}

func (p *MinMaxInvestment) set(tx *txn.Tx, f fund.Context, data []byte) error {
	lo, hi, err := settings.DecodeUint256Pair(data)
	if err != nil {
		return errs.Wrap(errs.KindInvalidConfiguration, "min max investment settings", err)
	}
	if hi.Sign() != 0 && lo.Cmp(hi) > 0 {
		return errs.E(errs.KindInvalidConfiguration, "min max investment settings", "min %s exceeds max %s", lo, hi)
	}
	p.bounds.Set(tx, f.Address(), investmentBounds{min: lo, max: hi})
	return nil
}

func (p *MinMaxInvestment) ValidateRule(_ *txn.Tx, f fund.Context, args model.HookArgs) (bool, error) {
	buy, ok := args.(model.PostBuySharesArgs)
	if !ok {
		return true, nil
	}
	b, ok := p.bounds.Get(f.Address())
	if !ok {
		return true, nil
	}
	if buy.InvestmentAmount.Cmp(b.min) < 0 {
		return false, nil
	}
	return b.max.Sign() == 0 || buy.InvestmentAmount.Cmp(b.max) <= 0, nil
}
