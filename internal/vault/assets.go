package vault

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fundCore/internal/errs"
	"fundCore/internal/events"
	"fundCore/internal/txn"
)

// WithdrawAssetTo sends custody of asset to a recipient.
func (v *Vault) WithdrawAssetTo(tx *txn.Tx, caller, asset, to common.Address, amount *big.Int) error {
	if err := v.onlyAccessor("withdraw asset", caller); err != nil {
		return err
	}
	return v.tokens.Transfer(tx, asset, v.address, to, amount)
}

// AddTrackedAsset starts valuing asset. Adding a tracked asset is a no-op.
func (v *Vault) AddTrackedAsset(tx *txn.Tx, caller, asset common.Address) error {
	const op = "add tracked asset"
	if err := v.onlyAccessor(op, caller); err != nil {
		return err
	}
	if v.tracked.Contains(asset) {
		return nil
	}
	if v.tracked.Len() >= MaxTrackedAssets {
		return errs.E(errs.KindInvalidConfiguration, op, "tracked asset limit %d reached", MaxTrackedAssets)
	}
	v.tracked.Add(tx, asset)
	tx.Emit(v.address, events.TrackedAssetAdded, asset)
	v.logger.Debug("tracked asset added", zap.String("asset", asset.Hex()))
	return nil
}

// RemoveTrackedAsset stops valuing asset. Its custody balance must be zero.
func (v *Vault) RemoveTrackedAsset(tx *txn.Tx, caller, asset common.Address) error {
	const op = "remove tracked asset"
	if err := v.onlyAccessor(op, caller); err != nil {
		return err
	}
	if !v.tracked.Contains(asset) {
		return nil
	}
	if a := v.accessor.Get(); a != nil && a.DenominationAsset() == asset {
		return errs.E(errs.KindInvalidConfiguration, op, "denomination asset %s cannot be removed", asset.Hex())
	}
	if bal := v.AssetBalance(asset); bal.Sign() != 0 {
		return errs.E(errs.KindInvalidConfiguration, op, "asset %s still holds %s", asset.Hex(), bal)
	}
	v.tracked.Remove(tx, asset)
	tx.Emit(v.address, events.TrackedAssetRemoved, asset)
	return nil
}

func (v *Vault) AddExternalPosition(tx *txn.Tx, caller, position common.Address) error {
	const op = "add external position"
	if err := v.onlyAccessor(op, caller); err != nil {
		return err
	}
	if v.positions.Add(tx, position) {
		tx.Emit(v.address, events.ExternalPositionAdded, position)
	}
	return nil
}

func (v *Vault) RemoveExternalPosition(tx *txn.Tx, caller, position common.Address) error {
	const op = "remove external position"
	if err := v.onlyAccessor(op, caller); err != nil {
		return err
	}
	if v.positions.Remove(tx, position) {
		tx.Emit(v.address, events.ExternalPositionRemoved, position)
	}
	return nil
}
