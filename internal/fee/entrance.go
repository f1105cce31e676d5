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

// EntranceRate charges a share of every purchase. Settings: (uint256 rateBps).
type EntranceRate struct {
	address    common.Address
	settlement model.SettlementType
	rates      *txn.Map[common.Address, *big.Int]
}

// NewEntranceRateDirect pays the charged shares to the fee recipient.
func NewEntranceRateDirect(address common.Address) *EntranceRate {
	return &EntranceRate{address: address, settlement: model.SettlementDirect, rates: txn.NewMap[common.Address, *big.Int]()}
}

// NewEntranceRateBurn burns the charged shares, accruing value to other holders.
func NewEntranceRateBurn(address common.Address) *EntranceRate {
	return &EntranceRate{address: address, settlement: model.SettlementBurn, rates: txn.NewMap[common.Address, *big.Int]()}
}

func (e *EntranceRate) Address() common.Address { return e.address }

func (e *EntranceRate) Identifier() string {
	if e.settlement == model.SettlementBurn {
		return "ENTRANCE_RATE_BURN"
	}
	return "ENTRANCE_RATE_DIRECT"
}

func (e *EntranceRate) AddFundSettings(tx *txn.Tx, f fund.Context, data []byte) error {
	rate, err := settings.DecodeUint256(data)
	if err != nil {
		return errs.Wrap(errs.KindInvalidConfiguration, "entrance fee settings", err)
	}
	if rate.Sign() <= 0 || rate.Cmp(big.NewInt(fund.MaxBps)) >= 0 {
		return errs.E(errs.KindInvalidConfiguration, "entrance fee settings", "rate %s out of range", rate)
	}
	e.rates.Set(tx, f.Address(), rate)
	return nil
}

func (e *EntranceRate) ActivateForFund(*txn.Tx, fund.Context) error { return nil }

func (e *EntranceRate) DeactivateForFund(tx *txn.Tx, f fund.Context) {
	e.rates.Delete(tx, f.Address())
}

func (e *EntranceRate) SettlesOnHook(hook model.Hook) (bool, bool) {
	return hook == model.HookPostBuyShares, false
}

// Rate returns the configured rate for a controller.
func (e *EntranceRate) Rate(controller common.Address) *big.Int {
	if r, ok := e.rates.Get(controller); ok {
		return new(big.Int).Set(r)
	}
	return new(big.Int)
}

func (e *EntranceRate) Settle(_ *txn.Tx, f fund.Context, _ model.Hook, args model.HookArgs, _ *big.Int) (Settlement, error) {
	buy, ok := args.(model.PostBuySharesArgs)
	if !ok {
		return none(), nil
	}
	due := fund.Bps(buy.SharesIssued, e.Rate(f.Address()))
	if due.Sign() == 0 {
		return none(), nil
	}
	return Settlement{Type: e.settlement, Payer: buy.Buyer, Shares: due}, nil
}
