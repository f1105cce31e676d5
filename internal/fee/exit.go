package fee

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"fundCore/internal/errs"
	"fundCore/internal/fund"
	"fundCore/internal/model"
	"fundCore/internal/settings"
	"fundCore/internal/txn"
)

type exitRates struct {
	inKind   *big.Int
	specific *big.Int
}

// ExitRate charges a share of every redemption.
// Settings: (uint256 inKindRateBps, uint256 specificAssetsRateBps).
type ExitRate struct {
	address    common.Address
	settlement model.SettlementType
	rates      *txn.Map[common.Address, exitRates]
}

func NewExitRateDirect(address common.Address) *ExitRate {
	return &ExitRate{address: address, settlement: model.SettlementDirect, rates: txn.NewMap[common.Address, exitRates]()}
}

func NewExitRateBurn(address common.Address) *ExitRate {
	return &ExitRate{address: address, settlement: model.SettlementBurn, rates: txn.NewMap[common.Address, exitRates]()}
}

func (e *ExitRate) Address() common.Address { return e.address }

func (e *ExitRate) Identifier() string {
	if e.settlement == model.SettlementBurn {
		return "EXIT_RATE_BURN"
	}
	return "EXIT_RATE_DIRECT"
}

func (e *ExitRate) AddFundSettings(tx *txn.Tx, f fund.Context, data []byte) error {
	inKind, specific, err := settings.DecodeUint256Pair(data)
	if err != nil {
		return errs.Wrap(errs.KindInvalidConfiguration, "exit fee settings", err)
	}
	limit := big.NewInt(fund.MaxBps)
	if inKind.Cmp(limit) >= 0 || specific.Cmp(limit) >= 0 {
		return errs.E(errs.KindInvalidConfiguration, "exit fee settings", "rate out of range")
	}
	e.rates.Set(tx, f.Address(), exitRates{inKind: inKind, specific: specific})
	return nil
}

func (e *ExitRate) ActivateForFund(*txn.Tx, fund.Context) error { return nil }

func (e *ExitRate) DeactivateForFund(tx *txn.Tx, f fund.Context) {
	e.rates.Delete(tx, f.Address())
}

func (e *ExitRate) SettlesOnHook(hook model.Hook) (bool, bool) {
	return hook == model.HookPreRedeemShares, false
}

func (e *ExitRate) Settle(_ *txn.Tx, f fund.Context, _ model.Hook, args model.HookArgs, _ *big.Int) (Settlement, error) {
	redeem, ok := args.(model.PreRedeemSharesArgs)
	if !ok {
		return none(), nil
	}
	rates, ok := e.rates.Get(f.Address())
	if !ok {
		return none(), nil
	}
	rate := rates.inKind
	if redeem.ForSpecificAssets {
		rate = rates.specific
	}
	due := fund.Bps(redeem.SharesToRedeem, rate)
	if due.Sign() == 0 {
		return none(), nil
	}
	return Settlement{Type: e.settlement, Payer: redeem.Redeemer, Shares: due}, nil
}
