package policy

import (
	"github.com/ethereum/go-ethereum/common"

	"fundCore/internal/errs"
	"fundCore/internal/fund"
	"fundCore/internal/model"
	"fundCore/internal/settings"
	"fundCore/internal/txn"
)

// AllowedExternalPositionTypes restricts the position types a pool may create.
// Settings: (uint256[] typeIds). Settings are immutable once set.
type AllowedExternalPositionTypes struct {
	address common.Address
	allowed *txn.Map[common.Address, map[uint64]bool]
}

func NewAllowedExternalPositionTypes(address common.Address) *AllowedExternalPositionTypes {
	return &AllowedExternalPositionTypes{address: address, allowed: txn.NewMap[common.Address, map[uint64]bool]()}
}

func (p *AllowedExternalPositionTypes) Address() common.Address { return p.address }
func (p *AllowedExternalPositionTypes) Identifier() string      { return "ALLOWED_EXTERNAL_POSITION_TYPES" }
func (p *AllowedExternalPositionTypes) CanDisable() bool        { return true }

func (p *AllowedExternalPositionTypes) ImplementedHooks() []model.Hook {
	return []model.Hook{model.HookCreateExternalPosition}
}

func (p *AllowedExternalPositionTypes) AddFundSettings(tx *txn.Tx, f fund.Context, data []byte) error {
	const op = "allowed external position types settings"
	ids, err := settings.DecodeUint256Array(data)
	if err != nil {
		return errs.Wrap(errs.KindInvalidConfiguration, op, err)
	}
	allowed := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		if !id.IsUint64() {
			return errs.E(errs.KindInvalidConfiguration, op, "type id %s out of range", id)
		}
		allowed[id.Uint64()] = true
	}
	p.allowed.Set(tx, f.Address(), allowed)
	return nil
}

func (p *AllowedExternalPositionTypes) UpdateFundSettings(*txn.Tx, fund.Context, []byte) error {
	return errs.E(errs.KindInvalidConfiguration, "update policy settings", "%s settings are immutable", p.Identifier())
}

func (p *AllowedExternalPositionTypes) DeactivateForFund(tx *txn.Tx, f fund.Context) {
	p.allowed.Delete(tx, f.Address())
}

func (p *AllowedExternalPositionTypes) ValidateRule(_ *txn.Tx, f fund.Context, args model.HookArgs) (bool, error) {
	create, ok := args.(model.CreateExternalPositionArgs)
	if !ok {
		return true, nil
	}
	allowed, ok := p.allowed.Get(f.Address())
	return ok && allowed[create.TypeID], nil
}
