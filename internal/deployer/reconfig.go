package deployer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fundCore/internal/controller"
	"fundCore/internal/errs"
	"fundCore/internal/events"
	"fundCore/internal/model"
	"fundCore/internal/txn"
)

type pendingReconfiguration struct {
	request model.MigrationRequest
	next    *controller.Controller
}

// ReconfigurationRequest returns the pending controller swap of a vault.
func (fd *FundDeployer) ReconfigurationRequest(vaultAddr common.Address) (model.MigrationRequest, bool) {
	pending, ok := fd.reconfigs.Get(vaultAddr)
	return pending.request, ok
}

// CreateReconfigurationRequest prepares a replacement controller for a vault
// already on this release. Vault owner only.
func (fd *FundDeployer) CreateReconfigurationRequest(tx *txn.Tx, caller, vaultAddr common.Address, p ControllerParams) (model.MigrationRequest, error) {
	const op = "create reconfiguration request"
	if _, ok := fd.controllers.Get(vaultAddr); !ok {
		return model.MigrationRequest{}, errs.E(errs.KindInvalidConfiguration, op, "vault %s is not on release %s", vaultAddr.Hex(), fd.version)
	}
	if _, ok := fd.reconfigs.Get(vaultAddr); ok {
		return model.MigrationRequest{}, errs.E(errs.KindInvalidConfiguration, op, "reconfiguration already pending for %s", vaultAddr.Hex())
	}
	if _, ok := fd.dispatcher.MigrationRequest(vaultAddr); ok {
		return model.MigrationRequest{}, errs.E(errs.KindInvalidConfiguration, op, "migration pending for %s", vaultAddr.Hex())
	}
	_, next, err := fd.prepareController(tx, op, caller, vaultAddr, p)
	if err != nil {
		return model.MigrationRequest{}, err
	}
	now := tx.Now()
	req := model.MigrationRequest{
		Vault:            vaultAddr,
		NextFundDeployer: fd.address,
		NextAccessor:     next.Address(),
		SignaledAt:       now,
		ExecutableAt:     now + fd.reconfigLock,
	}
	fd.reconfigs.Set(tx, vaultAddr, pendingReconfiguration{request: req, next: next})
	tx.Emit(fd.address, events.ReconfigurationSignaled, vaultAddr, next.Address(), new(big.Int).SetUint64(req.ExecutableAt))
	return req, nil
}

// ExecuteReconfiguration swaps the vault onto its pending controller once the
// reconfiguration timelock has elapsed. Vault owner only.
func (fd *FundDeployer) ExecuteReconfiguration(tx *txn.Tx, caller, vaultAddr common.Address) error {
	const op = "execute reconfiguration"
	if _, err := fd.requireVaultOwner(op, caller, vaultAddr); err != nil {
		return err
	}
	pending, ok := fd.reconfigs.Get(vaultAddr)
	if !ok {
		return errs.E(errs.KindInvalidConfiguration, op, "no reconfiguration pending for %s", vaultAddr.Hex())
	}
	if now := tx.Now(); now < pending.request.ExecutableAt {
		return errs.E(errs.KindTimelockNotElapsed, op, "executable at %d, now %d", pending.request.ExecutableAt, now)
	}
	prev, _ := fd.controllers.Get(vaultAddr)
	if err := prev.Destruct(tx, fd.address); err != nil {
		return err
	}
	if err := fd.dispatcher.setAccessor(tx, fd, vaultAddr, pending.next); err != nil {
		return err
	}
	if err := pending.next.Activate(tx, fd.address, true); err != nil {
		return err
	}
	fd.controllers.Set(tx, vaultAddr, pending.next)
	fd.reconfigs.Delete(tx, vaultAddr)
	tx.Emit(fd.address, events.ReconfigurationExecuted, vaultAddr, prev.Address(), pending.next.Address())
	fd.logger.Info("reconfiguration executed",
		zap.String("vault", vaultAddr.Hex()),
		zap.String("prev", prev.Address().Hex()),
		zap.String("next", pending.next.Address().Hex()))
	return nil
}

// CancelReconfiguration drops a pending controller swap. Vault owner only.
func (fd *FundDeployer) CancelReconfiguration(tx *txn.Tx, caller, vaultAddr common.Address) error {
	const op = "cancel reconfiguration"
	if _, err := fd.requireVaultOwner(op, caller, vaultAddr); err != nil {
		return err
	}
	pending, ok := fd.reconfigs.Get(vaultAddr)
	if !ok {
		return errs.E(errs.KindInvalidConfiguration, op, "no reconfiguration pending for %s", vaultAddr.Hex())
	}
	if err := fd.discard(tx, pending.next); err != nil {
		return err
	}
	fd.reconfigs.Delete(tx, vaultAddr)
	tx.Emit(fd.address, events.ReconfigurationCancelled, vaultAddr, pending.next.Address())
	return nil
}
