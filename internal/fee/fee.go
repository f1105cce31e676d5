// Package fee implements the FeeManager and the fees it settles.
package fee

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"fundCore/internal/fund"
	"fundCore/internal/model"
	"fundCore/internal/txn"
)

// SecondsPerYear is the accrual year of time-based fees (365.25 days).
const SecondsPerYear = 31557600

// Settlement is what a fee asks the manager to apply on one hook.
type Settlement struct {
	Type   model.SettlementType
	Payer  common.Address
	Shares *big.Int
}

func none() Settlement {
	return Settlement{Type: model.SettlementNone, Shares: new(big.Int)}
}

// Fee is a pluggable fee. State a fee keeps per pool is keyed by the
// controller address of fund.Context.
type Fee interface {
	Address() common.Address
	Identifier() string
	AddFundSettings(tx *txn.Tx, f fund.Context, settings []byte) error
	ActivateForFund(tx *txn.Tx, f fund.Context) error
	// DeactivateForFund drops the fee's state for the pool.
	DeactivateForFund(tx *txn.Tx, f fund.Context)
	SettlesOnHook(hook model.Hook) (settles bool, usesGav bool)
	Settle(tx *txn.Tx, f fund.Context, hook model.Hook, args model.HookArgs, gav *big.Int) (Settlement, error)
}

// OutstandingFee is a fee whose minted shares are held by the vault and paid
// out to the recipient only when its payout period allows.
type OutstandingFee interface {
	Fee
	HoldsSharesOutstanding(f fund.Context) bool
	// PayoutAllowed reports whether shares outstanding may be paid now and
	// marks the payout when it may.
	PayoutAllowed(tx *txn.Tx, f fund.Context) bool
}

// Mode controls how a settlement failure propagates.
type Mode uint8

const (
	// Mandatory aborts the unit on any fee failure.
	Mandatory Mode = iota
	// BestEffort reverts the failing fee, reports it and continues.
	BestEffort
)

func (m Mode) String() string {
	if m == BestEffort {
		return "best_effort"
	}
	return "mandatory"
}
