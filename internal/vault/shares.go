package vault

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"fundCore/internal/errs"
	"fundCore/internal/events"
	"fundCore/internal/txn"
)

func (v *Vault) MintShares(tx *txn.Tx, caller, to common.Address, amount *big.Int) error {
	const op = "mint shares"
	if err := v.onlyAccessor(op, caller); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return errs.E(errs.KindInvalidConfiguration, op, "mint to zero address")
	}
	if amount.Sign() <= 0 {
		return nil
	}
	v.setBalance(tx, to, new(big.Int).Add(v.BalanceOf(to), amount))
	v.supply.Set(tx, new(big.Int).Add(v.TotalSupply(), amount))
	tx.Emit(v.address, events.Transfer, common.Address{}, to, new(big.Int).Set(amount))
	return nil
}

func (v *Vault) BurnShares(tx *txn.Tx, caller, from common.Address, amount *big.Int) error {
	const op = "burn shares"
	if err := v.onlyAccessor(op, caller); err != nil {
		return err
	}
	if amount.Sign() <= 0 {
		return nil
	}
	bal := v.BalanceOf(from)
	if bal.Cmp(amount) < 0 {
		return errs.E(errs.KindInsufficientBalance, op, "%s holds %s shares, needs %s", from.Hex(), bal, amount)
	}
	v.setBalance(tx, from, bal.Sub(bal, amount))
	v.supply.Set(tx, new(big.Int).Sub(v.TotalSupply(), amount))
	tx.Emit(v.address, events.Transfer, from, common.Address{}, new(big.Int).Set(amount))
	return nil
}

// TransferShares moves shares on the accessor's behalf without running hooks.
func (v *Vault) TransferShares(tx *txn.Tx, caller, from, to common.Address, amount *big.Int) error {
	const op = "transfer shares"
	if err := v.onlyAccessor(op, caller); err != nil {
		return err
	}
	return v.move(tx, op, from, to, amount)
}

// Transfer moves a holder's own shares after the accessor approves it.
func (v *Vault) Transfer(tx *txn.Tx, from, to common.Address, amount *big.Int) error {
	const op = "transfer"
	if to == (common.Address{}) {
		return errs.E(errs.KindInvalidConfiguration, op, "transfer to zero address")
	}
	a := v.accessor.Get()
	if a == nil {
		return errs.E(errs.KindUnauthorized, op, "vault has no accessor")
	}
	if err := a.PreTransferSharesHook(tx, from, to, amount); err != nil {
		return err
	}
	return v.move(tx, op, from, to, amount)
}

func (v *Vault) move(tx *txn.Tx, op string, from, to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return errs.E(errs.KindInvalidConfiguration, op, "negative amount")
	}
	bal := v.BalanceOf(from)
	if bal.Cmp(amount) < 0 {
		return errs.E(errs.KindInsufficientBalance, op, "%s holds %s shares, needs %s", from.Hex(), bal, amount)
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	v.setBalance(tx, from, bal.Sub(bal, amount))
	v.setBalance(tx, to, new(big.Int).Add(v.BalanceOf(to), amount))
	tx.Emit(v.address, events.Transfer, from, to, new(big.Int).Set(amount))
	return nil
}

func (v *Vault) setBalance(tx *txn.Tx, holder common.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		v.balances.Delete(tx, holder)
		return
	}
	v.balances.Set(tx, holder, amount)
}

// Holders returns every address with a non-zero share balance.
func (v *Vault) Holders() []common.Address {
	out := make([]common.Address, 0, v.balances.Len())
	v.balances.Range(func(holder common.Address, _ *big.Int) bool {
		out = append(out, holder)
		return true
	})
	return out
}
