package vault

import (
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fundCore/internal/errs"
	"fundCore/internal/events"
	"fundCore/internal/txn"
)

// SetAccessor rebinds the vault to a controller. Only the dispatcher may call it.
func (v *Vault) SetAccessor(tx *txn.Tx, caller common.Address, next Accessor) error {
	const op = "set accessor"
	if caller != v.dispatcher {
		return errs.E(errs.KindUnauthorized, op, "%s is not the dispatcher", caller.Hex())
	}
	if next == nil {
		return errs.E(errs.KindInvalidConfiguration, op, "accessor is nil")
	}
	prev := v.Accessor()
	v.accessor.Set(tx, next)
	tx.Emit(v.address, events.AccessorSet, prev, next.Address())
	v.logger.Info("accessor set", zap.String("prev", prev.Hex()), zap.String("next", next.Address().Hex()))
	return nil
}

func (v *Vault) AddAssetManagers(tx *txn.Tx, caller common.Address, managers []common.Address) error {
	const op = "add asset managers"
	if err := v.onlyOwner(op, caller); err != nil {
		return err
	}
	for _, m := range managers {
		if m == v.Owner() || v.IsAssetManager(m) {
			return errs.E(errs.KindInvalidConfiguration, op, "%s is already a manager", m.Hex())
		}
		v.managers.Set(tx, m, struct{}{})
		tx.Emit(v.address, events.AssetManagerAdded, m)
	}
	return nil
}

func (v *Vault) RemoveAssetManagers(tx *txn.Tx, caller common.Address, managers []common.Address) error {
	const op = "remove asset managers"
	if err := v.onlyOwner(op, caller); err != nil {
		return err
	}
	for _, m := range managers {
		if !v.IsAssetManager(m) {
			return errs.E(errs.KindInvalidConfiguration, op, "%s is not a manager", m.Hex())
		}
		v.managers.Delete(tx, m)
		tx.Emit(v.address, events.AssetManagerRemoved, m)
	}
	return nil
}

// SetNominatedOwner names the account that may claim ownership. Zero clears it.
func (v *Vault) SetNominatedOwner(tx *txn.Tx, caller, nominee common.Address) error {
	const op = "set nominated owner"
	if err := v.onlyOwner(op, caller); err != nil {
		return err
	}
	if nominee == v.Owner() {
		return errs.E(errs.KindInvalidConfiguration, op, "nominee is already the owner")
	}
	v.nominated.Set(tx, nominee)
	tx.Emit(v.address, events.NominatedOwnerSet, nominee)
	return nil
}

func (v *Vault) ClaimOwnership(tx *txn.Tx, caller common.Address) error {
	const op = "claim ownership"
	nominee := v.nominated.Get()
	if nominee == (common.Address{}) || caller != nominee {
		return errs.E(errs.KindUnauthorized, op, "%s is not the nominated owner", caller.Hex())
	}
	prev := v.Owner()
	v.owner.Set(tx, nominee)
	v.nominated.Set(tx, common.Address{})
	tx.Emit(v.address, events.OwnershipTransferred, prev, nominee)
	return nil
}
