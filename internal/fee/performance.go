package fee

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"fundCore/internal/errs"
	"fundCore/internal/events"
	"fundCore/internal/fund"
	"fundCore/internal/model"
	"fundCore/internal/settings"
	"fundCore/internal/txn"
)

type performanceState struct {
	rate          *big.Int
	payoutPeriod  uint64
	highWaterMark *big.Int
	lastPaid      uint64
	// issued is set once a settlement has seen shares in issue. The mark is
	// repriced only after supply returns to zero from there.
	issued bool
}

// Performance charges a rate on share value gains above a high-water mark.
// Settings: (uint256 rateBps, uint256 payoutPeriodSeconds). With a non-zero
// payout period the charged shares are held by the vault until paid out.
type Performance struct {
	address common.Address
	state   *txn.Map[common.Address, performanceState]
}

var _ OutstandingFee = (*Performance)(nil)

func NewPerformance(address common.Address) *Performance {
	return &Performance{address: address, state: txn.NewMap[common.Address, performanceState]()}
}

func (p *Performance) Address() common.Address { return p.address }
func (p *Performance) Identifier() string      { return "PERFORMANCE" }

func (p *Performance) AddFundSettings(tx *txn.Tx, f fund.Context, data []byte) error {
	rate, period, err := settings.DecodeUint256Pair(data)
	if err != nil {
		return errs.Wrap(errs.KindInvalidConfiguration, "performance fee settings", err)
	}
	if rate.Sign() <= 0 || rate.Cmp(big.NewInt(fund.MaxBps)) >= 0 {
		return errs.E(errs.KindInvalidConfiguration, "performance fee settings", "rate %s out of range", rate)
	}
	if !period.IsUint64() {
		return errs.E(errs.KindInvalidConfiguration, "performance fee settings", "payout period %s too large", period)
	}
	p.state.Set(tx, f.Address(), performanceState{
		rate:          rate,
		payoutPeriod:  period.Uint64(),
		highWaterMark: new(big.Int),
	})
	return nil
}

// ActivateForFund starts the high-water mark at the pool's gross share value,
// which is one denomination unit while no shares are in issue.
func (p *Performance) ActivateForFund(tx *txn.Tx, f fund.Context) error {
	const op = "activate performance fee"
	st, ok := p.state.Get(f.Address())
	if !ok {
		return errs.E(errs.KindInvalidConfiguration, op, "no settings for %s", f.Address().Hex())
	}
	unit, err := f.Tokens().Unit(f.DenominationAsset())
	if err != nil {
		return err
	}
	hwm := unit
	supply := f.Vault().TotalSupply()
	if supply.Sign() > 0 {
		gav, _, err := f.CalcGav(tx.Context(), false)
		if err != nil {
			return errs.Wrap(errs.KindInvalidConfiguration, op, err)
		}
		hwm = fund.MulDiv(gav, fund.SharesUnit, supply)
	}
	st.lastPaid = tx.Now()
	st.issued = supply.Sign() > 0
	p.setHighWaterMark(tx, f, st, hwm)
	return nil
}

// DeactivateForFund forgets the pool's settings and mark.
func (p *Performance) DeactivateForFund(tx *txn.Tx, f fund.Context) {
	p.state.Delete(tx, f.Address())
}

func (p *Performance) SettlesOnHook(hook model.Hook) (bool, bool) {
	switch hook {
	case model.HookContinuous, model.HookPreBuyShares, model.HookPreRedeemShares:
		return true, true
	}
	return false, false
}

// HighWaterMark returns the share value above which gains are charged.
func (p *Performance) HighWaterMark(controller common.Address) *big.Int {
	if st, ok := p.state.Get(controller); ok && st.highWaterMark != nil {
		return new(big.Int).Set(st.highWaterMark)
	}
	return new(big.Int)
}

func (p *Performance) HoldsSharesOutstanding(f fund.Context) bool {
	st, _ := p.state.Get(f.Address())
	return st.payoutPeriod > 0
}

func (p *Performance) PayoutAllowed(tx *txn.Tx, f fund.Context) bool {
	st, ok := p.state.Get(f.Address())
	if !ok || tx.Now() < st.lastPaid+st.payoutPeriod {
		return false
	}
	st.lastPaid = tx.Now()
	p.state.Set(tx, f.Address(), st)
	return true
}

func (p *Performance) Settle(tx *txn.Tx, f fund.Context, _ model.Hook, _ model.HookArgs, gav *big.Int) (Settlement, error) {
	st, ok := p.state.Get(f.Address())
	if !ok {
		return none(), nil
	}
	supply := f.Vault().TotalSupply()
	if supply.Sign() == 0 {
		if st.issued {
			st.issued = false
			st.highWaterMark = new(big.Int)
			p.state.Set(tx, f.Address(), st)
		}
		return none(), nil
	}
	if !st.issued {
		st.issued = true
		p.state.Set(tx, f.Address(), st)
	}
	if gav == nil || gav.Sign() == 0 {
		return none(), nil
	}

	price := fund.MulDiv(gav, fund.SharesUnit, supply)
	if st.highWaterMark.Sign() == 0 {
		p.setHighWaterMark(tx, f, st, price)
		return none(), nil
	}
	if price.Cmp(st.highWaterMark) <= 0 {
		return none(), nil
	}

	gain := new(big.Int).Sub(price, st.highWaterMark)
	valueDue := fund.Bps(fund.MulDiv(gain, supply, fund.SharesUnit), st.rate)
	if valueDue.Sign() == 0 || valueDue.Cmp(gav) >= 0 {
		return none(), nil
	}
	sharesDue := fund.MulDiv(valueDue, supply, new(big.Int).Sub(gav, valueDue))
	if sharesDue.Sign() == 0 {
		return none(), nil
	}
	next := fund.MulDiv(gav, fund.SharesUnit, new(big.Int).Add(supply, sharesDue))
	p.setHighWaterMark(tx, f, st, next)
	return Settlement{Type: model.SettlementMint, Shares: sharesDue}, nil
}

func (p *Performance) setHighWaterMark(tx *txn.Tx, f fund.Context, st performanceState, hwm *big.Int) {
	st.highWaterMark = hwm
	p.state.Set(tx, f.Address(), st)
	tx.Emit(p.address, events.HighWaterMarkUpdated, f.Address(), new(big.Int).Set(hwm))
}
