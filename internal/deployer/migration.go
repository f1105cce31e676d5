package deployer

import (
	"github.com/ethereum/go-ethereum/common"

	"fundCore/internal/controller"
	"fundCore/internal/errs"
	"fundCore/internal/model"
	"fundCore/internal/txn"
)

// SignalMigration prepares a controller on this release for a vault of an
// older release and starts the dispatcher's migration timelock. Vault owner
// only. The release must be live and current.
func (fd *FundDeployer) SignalMigration(tx *txn.Tx, caller, vaultAddr common.Address, p ControllerParams) (model.MigrationRequest, error) {
	const op = "signal migration"
	if _, pending := fd.dispatcher.MigrationRequest(vaultAddr); pending {
		return model.MigrationRequest{}, errs.E(errs.KindInvalidConfiguration, op, "migration already pending for %s", vaultAddr.Hex())
	}
	_, next, err := fd.prepareController(tx, op, caller, vaultAddr, p)
	if err != nil {
		return model.MigrationRequest{}, err
	}
	return fd.dispatcher.signalMigration(tx, fd, vaultAddr, next)
}

// ExecuteMigration moves a vault onto this release once the timelock has
// elapsed. Vault owner only.
func (fd *FundDeployer) ExecuteMigration(tx *txn.Tx, caller, vaultAddr common.Address) error {
	const op = "execute migration"
	if _, err := fd.requireVaultOwner(op, caller, vaultAddr); err != nil {
		return err
	}
	return fd.dispatcher.executeMigration(tx, fd, vaultAddr)
}

// CancelMigration drops a pending migration to this release. Vault owner only.
func (fd *FundDeployer) CancelMigration(tx *txn.Tx, caller, vaultAddr common.Address) error {
	const op = "cancel migration"
	if _, err := fd.requireVaultOwner(op, caller, vaultAddr); err != nil {
		return err
	}
	return fd.dispatcher.cancelMigration(tx, fd, vaultAddr)
}

// migrateOut retires the vault's controller on this release.
func (fd *FundDeployer) migrateOut(tx *txn.Tx, vaultAddr common.Address) error {
	c, ok := fd.controllers.Get(vaultAddr)
	if !ok {
		return errs.E(errs.KindInvalidConfiguration, "migrate out", "no controller for vault %s on release %s", vaultAddr.Hex(), fd.version)
	}
	if pending, ok := fd.reconfigs.Get(vaultAddr); ok {
		if err := fd.discard(tx, pending.next); err != nil {
			return err
		}
		fd.reconfigs.Delete(tx, vaultAddr)
	}
	if err := c.Destruct(tx, fd.address); err != nil {
		return err
	}
	fd.controllers.Delete(tx, vaultAddr)
	return nil
}

// migrateIn activates a controller its vault has just been bound to.
func (fd *FundDeployer) migrateIn(tx *txn.Tx, next *controller.Controller) error {
	if err := next.Activate(tx, fd.address, true); err != nil {
		return err
	}
	fd.controllers.Set(tx, next.Vault().Address(), next)
	return nil
}
