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

type managementState struct {
	rate        *big.Int
	lastSettled uint64
}

// Management accrues an annual rate on net shares supply, minted to the recipient.
// Settings: (uint256 annualRateBps).
type Management struct {
	address common.Address
	state   *txn.Map[common.Address, managementState]
}

func NewManagement(address common.Address) *Management {
	return &Management{address: address, state: txn.NewMap[common.Address, managementState]()}
}

func (m *Management) Address() common.Address { return m.address }
func (m *Management) Identifier() string      { return "MANAGEMENT" }

func (m *Management) AddFundSettings(tx *txn.Tx, f fund.Context, data []byte) error {
	rate, err := settings.DecodeUint256(data)
	if err != nil {
		return errs.Wrap(errs.KindInvalidConfiguration, "management fee settings", err)
	}
	if rate.Sign() <= 0 || rate.Cmp(big.NewInt(fund.MaxBps)) >= 0 {
		return errs.E(errs.KindInvalidConfiguration, "management fee settings", "rate %s out of range", rate)
	}
	m.state.Set(tx, f.Address(), managementState{rate: rate})
	return nil
}

func (m *Management) ActivateForFund(tx *txn.Tx, f fund.Context) error {
	st, ok := m.state.Get(f.Address())
	if !ok {
		return errs.E(errs.KindInvalidConfiguration, "activate management fee", "no settings for %s", f.Address().Hex())
	}
	st.lastSettled = tx.Now()
	m.state.Set(tx, f.Address(), st)
	return nil
}

func (m *Management) DeactivateForFund(tx *txn.Tx, f fund.Context) {
	m.state.Delete(tx, f.Address())
}

func (m *Management) SettlesOnHook(hook model.Hook) (bool, bool) {
	switch hook {
	case model.HookContinuous, model.HookPreBuyShares, model.HookPreRedeemShares:
		return true, false
	}
	return false, false
}

// LastSettled returns the timestamp of the last accrual for a controller.
func (m *Management) LastSettled(controller common.Address) uint64 {
	st, _ := m.state.Get(controller)
	return st.lastSettled
}

func (m *Management) Settle(tx *txn.Tx, f fund.Context, _ model.Hook, _ model.HookArgs, _ *big.Int) (Settlement, error) {
	st, ok := m.state.Get(f.Address())
	if !ok {
		return none(), nil
	}
	now := tx.Now()
	if now <= st.lastSettled {
		return none(), nil
	}
	elapsed := now - st.lastSettled
	st.lastSettled = now
	m.state.Set(tx, f.Address(), st)

	v := f.Vault()
	netSupply := v.TotalSupply()
	netSupply.Sub(netSupply, v.BalanceOf(v.Address()))
	if netSupply.Sign() <= 0 {
		return none(), nil
	}

	due := new(big.Int).Mul(netSupply, st.rate)
	due.Mul(due, new(big.Int).SetUint64(elapsed))
	due.Quo(due, big.NewInt(fund.MaxBps*SecondsPerYear))
	if due.Sign() == 0 {
		return none(), nil
	}
	return Settlement{Type: model.SettlementMint, Shares: due}, nil
}
