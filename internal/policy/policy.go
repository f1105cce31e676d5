// Package policy implements the PolicyManager and the rules it enforces.
package policy

import (
	"github.com/ethereum/go-ethereum/common"

	"fundCore/internal/fund"
	"fundCore/internal/model"
	"fundCore/internal/txn"
)

// Policy is a pluggable rule evaluated on the hooks it implements.
type Policy interface {
	Address() common.Address
	Identifier() string
	ImplementedHooks() []model.Hook
	CanDisable() bool
	AddFundSettings(tx *txn.Tx, f fund.Context, settings []byte) error
	// UpdateFundSettings fails for policies whose settings are immutable.
	UpdateFundSettings(tx *txn.Tx, f fund.Context, settings []byte) error
	ValidateRule(tx *txn.Tx, f fund.Context, args model.HookArgs) (bool, error)
	// DeactivateForFund drops the policy's state for the pool.
	DeactivateForFund(tx *txn.Tx, f fund.Context)
}

func implements(p Policy, hook model.Hook) bool {
	for _, h := range p.ImplementedHooks() {
		if h == hook {
			return true
		}
	}
	return false
}
