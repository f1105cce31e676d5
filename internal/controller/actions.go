package controller

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"fundCore/internal/errs"
	"fundCore/internal/fund"
	"fundCore/internal/model"
	"fundCore/internal/txn"
)

// vaultAction names a vault mutation an extension may request.
type vaultAction uint8

const (
	actionMintShares vaultAction = iota
	actionBurnShares
	actionTransferShares
	actionWithdrawAssetTo
	actionAddTrackedAsset
	actionRemoveTrackedAsset
	actionAddExternalPosition
	actionRemoveExternalPosition
)

var actionNames = [...]string{
	"mint shares",
	"burn shares",
	"transfer shares",
	"withdraw asset",
	"add tracked asset",
	"remove tracked asset",
	"add external position",
	"remove external position",
}

// permitted reports whether caller may request action.
func (c *Controller) permitted(caller common.Address, action vaultAction) bool {
	is := func(ext fund.Extension) bool { return ext != nil && ext.Address() == caller }
	switch action {
	case actionMintShares, actionBurnShares, actionTransferShares:
		return c.ext.Fees != nil && is(c.ext.Fees)
	case actionWithdrawAssetTo, actionAddTrackedAsset:
		return (c.ext.Integrations != nil && is(c.ext.Integrations)) || (c.ext.Positions != nil && is(c.ext.Positions))
	case actionRemoveTrackedAsset:
		return c.ext.Integrations != nil && is(c.ext.Integrations)
	case actionAddExternalPosition, actionRemoveExternalPosition:
		return c.ext.Positions != nil && is(c.ext.Positions)
	}
	return false
}

func (c *Controller) authorize(caller common.Address, action vaultAction) error {
	op := actionNames[action]
	if !c.entered {
		return errs.E(errs.KindUnauthorized, op, "controller %s has no action in progress", c.address.Hex())
	}
	if !c.permitted(caller, action) {
		return errs.E(errs.KindUnauthorized, op, "%s may not %s", caller.Hex(), op)
	}
	return nil
}

func (c *Controller) MintShares(tx *txn.Tx, caller, to common.Address, amount *big.Int) error {
	if err := c.authorize(caller, actionMintShares); err != nil {
		return err
	}
	return c.vault.Get().MintShares(tx, c.address, to, amount)
}

func (c *Controller) BurnShares(tx *txn.Tx, caller, from common.Address, amount *big.Int) error {
	if err := c.authorize(caller, actionBurnShares); err != nil {
		return err
	}
	return c.vault.Get().BurnShares(tx, c.address, from, amount)
}

func (c *Controller) TransferShares(tx *txn.Tx, caller, from, to common.Address, amount *big.Int) error {
	if err := c.authorize(caller, actionTransferShares); err != nil {
		return err
	}
	return c.vault.Get().TransferShares(tx, c.address, from, to, amount)
}

func (c *Controller) WithdrawAssetTo(tx *txn.Tx, caller, asset, to common.Address, amount *big.Int) error {
	if err := c.authorize(caller, actionWithdrawAssetTo); err != nil {
		return err
	}
	return c.vault.Get().WithdrawAssetTo(tx, c.address, asset, to, amount)
}

func (c *Controller) AddTrackedAsset(tx *txn.Tx, caller, asset common.Address) error {
	if err := c.authorize(caller, actionAddTrackedAsset); err != nil {
		return err
	}
	return c.vault.Get().AddTrackedAsset(tx, c.address, asset)
}

func (c *Controller) RemoveTrackedAsset(tx *txn.Tx, caller, asset common.Address) error {
	if err := c.authorize(caller, actionRemoveTrackedAsset); err != nil {
		return err
	}
	return c.vault.Get().RemoveTrackedAsset(tx, c.address, asset)
}

func (c *Controller) AddExternalPosition(tx *txn.Tx, caller, position common.Address) error {
	if err := c.authorize(caller, actionAddExternalPosition); err != nil {
		return err
	}
	return c.vault.Get().AddExternalPosition(tx, c.address, position)
}

func (c *Controller) RemoveExternalPosition(tx *txn.Tx, caller, position common.Address) error {
	if err := c.authorize(caller, actionRemoveExternalPosition); err != nil {
		return err
	}
	return c.vault.Get().RemoveExternalPosition(tx, c.address, position)
}

// ValidatePolicies runs the pool's policies for args' hook.
func (c *Controller) ValidatePolicies(tx *txn.Tx, args model.HookArgs) error {
	if c.ext.Policies == nil {
		return nil
	}
	return c.ext.Policies.ValidatePolicies(tx, c, args)
}

// CallOnExtension forwards an action to one of the release's managers.
func (c *Controller) CallOnExtension(tx *txn.Tx, caller, extension common.Address, actionID uint64, data []byte) error {
	const op = "call on extension"
	release, err := c.enter(op)
	if err != nil {
		return err
	}
	defer release()
	if _, err := c.requireActive(op); err != nil {
		return err
	}
	target := c.extension(extension)
	if target == nil {
		return errs.E(errs.KindUnauthorizedExtension, op, "%s is not an extension of this release", extension.Hex())
	}
	return target.ReceiveCallFromController(tx, c, caller, actionID, data)
}

func (c *Controller) extension(addr common.Address) fund.Extension {
	switch {
	case c.ext.Fees != nil && c.ext.Fees.Address() == addr:
		return c.ext.Fees
	case c.ext.Policies != nil && c.ext.Policies.Address() == addr:
		return c.ext.Policies
	case c.ext.Integrations != nil && c.ext.Integrations.Address() == addr:
		return c.ext.Integrations
	case c.ext.Positions != nil && c.ext.Positions.Address() == addr:
		return c.ext.Positions
	}
	return nil
}

// PreTransferSharesHook gates holder-to-holder share transfers.
func (c *Controller) PreTransferSharesHook(tx *txn.Tx, sender, recipient common.Address, amount *big.Int) error {
	const op = "transfer shares"
	if _, err := c.requireActive(op); err != nil {
		return err
	}
	if err := c.checkSharesActionTimelock(tx, op, sender); err != nil {
		return err
	}
	return c.ValidatePolicies(tx, model.PreTransferSharesArgs{Sender: sender, Recipient: recipient, Amount: amount})
}
