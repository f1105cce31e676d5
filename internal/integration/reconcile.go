package integration

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"fundCore/internal/errs"
	"fundCore/internal/vault"
)

func validateDeclaration(d Declaration) error {
	const op = "validate declaration"
	if len(d.SpendAssets) != len(d.MaxSpendAssetAmounts) {
		return errs.E(errs.KindInvalidConfiguration, op, "%d spend assets, %d amounts", len(d.SpendAssets), len(d.MaxSpendAssetAmounts))
	}
	if len(d.IncomingAssets) != len(d.MinIncomingAssetAmounts) {
		return errs.E(errs.KindInvalidConfiguration, op, "%d incoming assets, %d amounts", len(d.IncomingAssets), len(d.MinIncomingAssetAmounts))
	}
	seen := make(map[common.Address]bool, len(d.SpendAssets)+len(d.IncomingAssets))
	for i, asset := range d.SpendAssets {
		if seen[asset] || asset == (common.Address{}) {
			return errs.E(errs.KindInvalidConfiguration, op, "spend asset %s repeated or zero", asset.Hex())
		}
		if d.MaxSpendAssetAmounts[i] == nil || d.MaxSpendAssetAmounts[i].Sign() <= 0 {
			return errs.E(errs.KindInvalidConfiguration, op, "spend amount of %s must be positive", asset.Hex())
		}
		seen[asset] = true
	}
	for i, asset := range d.IncomingAssets {
		if seen[asset] || asset == (common.Address{}) {
			return errs.E(errs.KindInvalidConfiguration, op, "incoming asset %s repeated, zero or also spent", asset.Hex())
		}
		if d.MinIncomingAssetAmounts[i] == nil || d.MinIncomingAssetAmounts[i].Sign() < 0 {
			return errs.E(errs.KindInvalidConfiguration, op, "min incoming amount of %s is invalid", asset.Hex())
		}
		seen[asset] = true
	}
	return nil
}

// snapshotBalances reads the vault balance of every declared and tracked asset.
func snapshotBalances(v *vault.Vault, d Declaration) map[common.Address]*big.Int {
	out := make(map[common.Address]*big.Int)
	for _, set := range [][]common.Address{d.SpendAssets, d.IncomingAssets, v.TrackedAssets()} {
		for _, asset := range set {
			if _, ok := out[asset]; !ok {
				out[asset] = v.AssetBalance(asset)
			}
		}
	}
	return out
}

// reconcile compares post-execution balances against the declaration and
// returns the received incoming amounts and the spent amounts.
func reconcile(v *vault.Vault, d Declaration, before map[common.Address]*big.Int) ([]*big.Int, []*big.Int, error) {
	const op = "reconcile integration"
	declared := make(map[common.Address]bool, len(d.SpendAssets)+len(d.IncomingAssets))

	incoming := make([]*big.Int, len(d.IncomingAssets))
	for i, asset := range d.IncomingAssets {
		declared[asset] = true
		delta := new(big.Int).Sub(v.AssetBalance(asset), before[asset])
		if delta.Sign() < 0 {
			return nil, nil, errs.E(errs.KindUnexpectedAssetMovement, op, "incoming asset %s decreased by %s", asset.Hex(), new(big.Int).Neg(delta))
		}
		if delta.Cmp(d.MinIncomingAssetAmounts[i]) < 0 {
			return nil, nil, errs.E(errs.KindIncomingAssetAmountTooLow, op, "%s received %s, min %s", asset.Hex(), delta, d.MinIncomingAssetAmounts[i])
		}
		incoming[i] = delta
	}

	spent := make([]*big.Int, len(d.SpendAssets))
	for i, asset := range d.SpendAssets {
		declared[asset] = true
		delta := new(big.Int).Sub(before[asset], v.AssetBalance(asset))
		if delta.Sign() < 0 {
			return nil, nil, errs.E(errs.KindUnexpectedAssetMovement, op, "spend asset %s increased", asset.Hex())
		}
		if delta.Cmp(d.MaxSpendAssetAmounts[i]) > 0 {
			return nil, nil, errs.E(errs.KindUnexpectedAssetMovement, op, "%s spent %s, max %s", asset.Hex(), delta, d.MaxSpendAssetAmounts[i])
		}
		spent[i] = delta
	}

	for asset, prev := range before {
		if declared[asset] {
			continue
		}
		if v.AssetBalance(asset).Cmp(prev) != 0 {
			return nil, nil, errs.E(errs.KindUnexpectedAssetMovement, op, "undeclared asset %s moved", asset.Hex())
		}
	}
	return incoming, spent, nil
}
