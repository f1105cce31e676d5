// Package deployer creates pools and moves them between releases.
//
// The Dispatcher is the one component that outlives releases. It deploys
// vaults, knows which release each vault belongs to and is the only caller a
// vault accepts for accessor changes. A FundDeployer belongs to one release
// and builds that release's controllers.
package deployer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fundCore/internal/addresslist"
	"fundCore/internal/controller"
	"fundCore/internal/errs"
	"fundCore/internal/events"
	"fundCore/internal/model"
	"fundCore/internal/token"
	"fundCore/internal/txn"
	"fundCore/internal/vault"
)

type vaultRecord struct {
	vault   *vault.Vault
	release common.Address
	status  model.FundStatus
}

type pendingMigration struct {
	request model.MigrationRequest
	next    *controller.Controller
}

type Dispatcher struct {
	address common.Address
	owner   common.Address
	tokens  *token.Ledger
	logger  *zap.Logger

	current    txn.Value[common.Address]
	timelock   txn.Value[uint64]
	releases   *txn.Map[common.Address, *FundDeployer]
	vaults     *txn.Map[common.Address, vaultRecord]
	migrations *txn.Map[common.Address, pendingMigration]
}

var _ addresslist.OwnerLookup = (*Dispatcher)(nil)

func NewDispatcher(address, owner common.Address, tokens *token.Ledger, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		address:    address,
		owner:      owner,
		tokens:     tokens,
		logger:     logger.With(zap.String("component", "dispatcher")),
		releases:   txn.NewMap[common.Address, *FundDeployer](),
		vaults:     txn.NewMap[common.Address, vaultRecord](),
		migrations: txn.NewMap[common.Address, pendingMigration](),
	}
}

func (d *Dispatcher) Address() common.Address             { return d.address }
func (d *Dispatcher) Owner() common.Address               { return d.owner }
func (d *Dispatcher) CurrentFundDeployer() common.Address { return d.current.Get() }
func (d *Dispatcher) MigrationTimelock() uint64           { return d.timelock.Get() }

// Release returns a release's FundDeployer by address.
func (d *Dispatcher) Release(address common.Address) (*FundDeployer, bool) {
	return d.releases.Get(address)
}

// Vault returns a deployed vault.
func (d *Dispatcher) Vault(address common.Address) (*vault.Vault, bool) {
	rec, ok := d.vaults.Get(address)
	return rec.vault, ok
}

// VaultRelease returns the FundDeployer a vault currently belongs to.
func (d *Dispatcher) VaultRelease(address common.Address) (common.Address, bool) {
	rec, ok := d.vaults.Get(address)
	return rec.release, ok
}

// FundStatus returns the lifecycle state of a vault.
func (d *Dispatcher) FundStatus(address common.Address) (model.FundStatus, bool) {
	rec, ok := d.vaults.Get(address)
	return rec.status, ok
}

// VaultOwner lets address lists owned by a vault be administered by its owner.
func (d *Dispatcher) VaultOwner(address common.Address) (common.Address, bool) {
	rec, ok := d.vaults.Get(address)
	if !ok {
		return common.Address{}, false
	}
	return rec.vault.Owner(), true
}

// MigrationRequest returns the pending migration of a vault.
func (d *Dispatcher) MigrationRequest(vaultAddr common.Address) (model.MigrationRequest, bool) {
	m, ok := d.migrations.Get(vaultAddr)
	return m.request, ok
}

// SetCurrentFundDeployer makes next the release new pools and migrations go to.
func (d *Dispatcher) SetCurrentFundDeployer(tx *txn.Tx, caller common.Address, next *FundDeployer) error {
	const op = "set current fund deployer"
	if caller != d.owner {
		return errs.E(errs.KindUnauthorized, op, "%s is not the dispatcher owner", caller.Hex())
	}
	if next == nil || next.dispatcher != d {
		return errs.E(errs.KindInvalidConfiguration, op, "fund deployer does not belong to this dispatcher")
	}
	prev := d.current.Get()
	if prev == next.Address() {
		return errs.E(errs.KindInvalidConfiguration, op, "%s is already current", prev.Hex())
	}
	d.releases.Set(tx, next.Address(), next)
	d.current.Set(tx, next.Address())
	tx.Emit(d.address, events.CurrentFundDeployerSet, prev, next.Address())
	d.logger.Info("current fund deployer set", zap.String("release", next.Version()), zap.String("fund_deployer", next.Address().Hex()))
	return nil
}

// SetMigrationTimelock sets the delay between signaling and executing a migration.
func (d *Dispatcher) SetMigrationTimelock(tx *txn.Tx, caller common.Address, seconds uint64) error {
	const op = "set migration timelock"
	if caller != d.owner {
		return errs.E(errs.KindUnauthorized, op, "%s is not the dispatcher owner", caller.Hex())
	}
	prev := d.timelock.Get()
	if prev == seconds {
		return nil
	}
	d.timelock.Set(tx, seconds)
	tx.Emit(d.address, events.MigrationTimelockSet, new(big.Int).SetUint64(prev), new(big.Int).SetUint64(seconds))
	return nil
}

// deployVault creates a vault for the current release, bound to accessor.
func (d *Dispatcher) deployVault(tx *txn.Tx, fd *FundDeployer, owner common.Address, name, symbol string, accessor vault.Accessor) (*vault.Vault, error) {
	const op = "deploy vault"
	if fd.Address() != d.current.Get() {
		return nil, errs.E(errs.KindUnauthorized, op, "%s is not the current fund deployer", fd.Address().Hex())
	}
	v, err := vault.New(tx, vault.Params{
		Address:    tx.CreateAddress(d.address),
		Dispatcher: d.address,
		Owner:      owner,
		Name:       name,
		Symbol:     symbol,
	}, d.tokens, d.logger)
	if err != nil {
		return nil, err
	}
	if err := v.SetAccessor(tx, d.address, accessor); err != nil {
		return nil, err
	}
	tx.Emit(d.address, events.ImplementationSet, v.Address(), fd.VaultLib())
	d.vaults.Set(tx, v.Address(), vaultRecord{vault: v, release: fd.Address(), status: model.FundCreated})
	return v, nil
}

func (d *Dispatcher) setStatus(tx *txn.Tx, vaultAddr common.Address, status model.FundStatus) {
	rec, ok := d.vaults.Get(vaultAddr)
	if !ok {
		return
	}
	rec.status = status
	d.vaults.Set(tx, vaultAddr, rec)
}

// signalMigration records a pending move of a vault to fd.
func (d *Dispatcher) signalMigration(tx *txn.Tx, fd *FundDeployer, vaultAddr common.Address, next *controller.Controller) (model.MigrationRequest, error) {
	const op = "signal migration"
	rec, ok := d.vaults.Get(vaultAddr)
	if !ok {
		return model.MigrationRequest{}, errs.E(errs.KindInvalidConfiguration, op, "unknown vault %s", vaultAddr.Hex())
	}
	if fd.Address() != d.current.Get() {
		return model.MigrationRequest{}, errs.E(errs.KindInvalidConfiguration, op, "%s is not the current fund deployer", fd.Address().Hex())
	}
	if rec.release == fd.Address() {
		return model.MigrationRequest{}, errs.E(errs.KindInvalidConfiguration, op, "vault already on release %s", fd.Version())
	}
	if _, pending := d.migrations.Get(vaultAddr); pending {
		return model.MigrationRequest{}, errs.E(errs.KindInvalidConfiguration, op, "migration already pending for %s", vaultAddr.Hex())
	}
	now := tx.Now()
	req := model.MigrationRequest{
		Vault:            vaultAddr,
		NextFundDeployer: fd.Address(),
		NextAccessor:     next.Address(),
		SignaledAt:       now,
		ExecutableAt:     now + d.timelock.Get(),
	}
	d.migrations.Set(tx, vaultAddr, pendingMigration{request: req, next: next})
	d.setStatus(tx, vaultAddr, model.FundMigrationSignaled)
	tx.Emit(d.address, events.MigrationSignaled, vaultAddr, fd.Address(), next.Address(), new(big.Int).SetUint64(req.ExecutableAt))
	return req, nil
}

// executeMigration retires the vault's controller, rebinds the vault to the
// pending controller and activates it.
func (d *Dispatcher) executeMigration(tx *txn.Tx, fd *FundDeployer, vaultAddr common.Address) error {
	const op = "execute migration"
	pending, ok := d.migrations.Get(vaultAddr)
	if !ok || pending.request.NextFundDeployer != fd.Address() {
		return errs.E(errs.KindInvalidConfiguration, op, "no migration of %s to %s", vaultAddr.Hex(), fd.Address().Hex())
	}
	if fd.Address() != d.current.Get() {
		return errs.E(errs.KindInvalidConfiguration, op, "%s is no longer the current fund deployer", fd.Address().Hex())
	}
	if now := tx.Now(); now < pending.request.ExecutableAt {
		return errs.E(errs.KindTimelockNotElapsed, op, "executable at %d, now %d", pending.request.ExecutableAt, now)
	}
	rec, _ := d.vaults.Get(vaultAddr)
	prevDeployer, ok := d.releases.Get(rec.release)
	if !ok {
		return errs.E(errs.KindInvalidConfiguration, op, "unknown release %s", rec.release.Hex())
	}
	prevAccessor := rec.vault.Accessor()

	if err := prevDeployer.migrateOut(tx, vaultAddr); err != nil {
		return err
	}
	if err := rec.vault.SetAccessor(tx, d.address, pending.next); err != nil {
		return err
	}
	tx.Emit(d.address, events.ImplementationSet, vaultAddr, fd.VaultLib())
	if err := fd.migrateIn(tx, pending.next); err != nil {
		return err
	}

	rec.release = fd.Address()
	rec.status = model.FundMigrationExecuted
	d.vaults.Set(tx, vaultAddr, rec)
	d.migrations.Delete(tx, vaultAddr)
	tx.Emit(d.address, events.MigrationExecuted, vaultAddr, fd.Address(), prevAccessor, pending.next.Address())
	d.logger.Info("migration executed",
		zap.String("vault", vaultAddr.Hex()),
		zap.String("release", fd.Version()),
		zap.String("controller", pending.next.Address().Hex()))
	return nil
}

func (d *Dispatcher) cancelMigration(tx *txn.Tx, fd *FundDeployer, vaultAddr common.Address) error {
	const op = "cancel migration"
	pending, ok := d.migrations.Get(vaultAddr)
	if !ok || pending.request.NextFundDeployer != fd.Address() {
		return errs.E(errs.KindInvalidConfiguration, op, "no migration of %s to %s", vaultAddr.Hex(), fd.Address().Hex())
	}
	if err := fd.discard(tx, pending.next); err != nil {
		return err
	}
	d.migrations.Delete(tx, vaultAddr)
	d.setStatus(tx, vaultAddr, model.FundActive)
	tx.Emit(d.address, events.MigrationCancelled, vaultAddr, fd.Address(), pending.next.Address())
	d.logger.Info("migration cancelled", zap.String("vault", vaultAddr.Hex()), zap.String("release", fd.Version()))
	return nil
}

// setAccessor rebinds a vault within its release.
func (d *Dispatcher) setAccessor(tx *txn.Tx, fd *FundDeployer, vaultAddr common.Address, next vault.Accessor) error {
	rec, ok := d.vaults.Get(vaultAddr)
	if !ok || rec.release != fd.Address() {
		return errs.E(errs.KindUnauthorized, "set vault accessor", "%s does not own vault %s", fd.Address().Hex(), vaultAddr.Hex())
	}
	return rec.vault.SetAccessor(tx, d.address, next)
}
