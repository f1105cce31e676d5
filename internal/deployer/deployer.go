package deployer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fundCore/internal/controller"
	"fundCore/internal/errs"
	"fundCore/internal/events"
	"fundCore/internal/model"
	"fundCore/internal/token"
	"fundCore/internal/txn"
	"fundCore/internal/valueinterp"
	"fundCore/internal/vault"
)

// Params describes a release's FundDeployer.
type Params struct {
	Address  common.Address
	Owner    common.Address
	Version  string
	VaultLib common.Address
	// ReconfigurationTimelock is the delay in seconds between requesting and
	// executing a controller swap within this release.
	ReconfigurationTimelock uint64
	PayoutToleranceBps      uint64
}

// FundParams describes a new pool.
type FundParams struct {
	Owner                common.Address
	Name                 string
	Symbol               string
	DenominationAsset    common.Address
	SharesActionTimelock uint64
	Config               controller.Config
}

// ControllerParams describes the controller a migration or reconfiguration
// moves a vault to.
type ControllerParams struct {
	DenominationAsset    common.Address
	SharesActionTimelock uint64
	Config               controller.Config
}

type FundDeployer struct {
	address      common.Address
	owner        common.Address
	version      string
	vaultLib     common.Address
	reconfigLock uint64
	toleranceBps uint64
	dispatcher   *Dispatcher
	tokens       *token.Ledger
	values       valueinterp.Interpreter
	ext          controller.Extensions
	logger       *zap.Logger

	status      txn.Value[model.ReleaseStatus]
	controllers *txn.Map[common.Address, *controller.Controller]
	reconfigs   *txn.Map[common.Address, pendingReconfiguration]
}

// NewFundDeployer creates a PreLaunch release bound to d.
func NewFundDeployer(p Params, d *Dispatcher, tokens *token.Ledger, values valueinterp.Interpreter, ext controller.Extensions, logger *zap.Logger) *FundDeployer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FundDeployer{
		address:      p.Address,
		owner:        p.Owner,
		version:      p.Version,
		vaultLib:     p.VaultLib,
		reconfigLock: p.ReconfigurationTimelock,
		toleranceBps: p.PayoutToleranceBps,
		dispatcher:   d,
		tokens:       tokens,
		values:       values,
		ext:          ext,
		logger:       logger.With(zap.String("release", p.Version)),
		controllers:  txn.NewMap[common.Address, *controller.Controller](),
		reconfigs:    txn.NewMap[common.Address, pendingReconfiguration](),
	}
}

func (fd *FundDeployer) Address() common.Address           { return fd.address }
func (fd *FundDeployer) Owner() common.Address             { return fd.owner }
func (fd *FundDeployer) Version() string                   { return fd.version }
func (fd *FundDeployer) VaultLib() common.Address          { return fd.vaultLib }
func (fd *FundDeployer) Status() model.ReleaseStatus       { return fd.status.Get() }
func (fd *FundDeployer) Extensions() controller.Extensions { return fd.ext }
func (fd *FundDeployer) ReconfigurationTimelock() uint64   { return fd.reconfigLock }

// Controller returns the active controller of a vault on this release.
func (fd *FundDeployer) Controller(vaultAddr common.Address) (*controller.Controller, bool) {
	return fd.controllers.Get(vaultAddr)
}

// Record describes the release.
func (fd *FundDeployer) Record() model.ReleaseRecord {
	rec := model.ReleaseRecord{
		Version:      fd.version,
		FundDeployer: fd.address,
		Status:       fd.status.Get(),
	}
	if fd.ext.Fees != nil {
		rec.FeeManager = fd.ext.Fees.Address()
	}
	if fd.ext.Policies != nil {
		rec.PolicyManager = fd.ext.Policies.Address()
	}
	if fd.ext.Integrations != nil {
		rec.IntegrationManager = fd.ext.Integrations.Address()
	}
	if fd.ext.Positions != nil {
		rec.ExternalPositionManager = fd.ext.Positions.Address()
	}
	return rec
}

// SetReleaseStatus moves the release between Live and Paused. A launched
// release never returns to PreLaunch. Release owner only.
func (fd *FundDeployer) SetReleaseStatus(tx *txn.Tx, caller common.Address, next model.ReleaseStatus) error {
	const op = "set release status"
	if caller != fd.owner {
		return errs.E(errs.KindUnauthorized, op, "%s is not the release owner", caller.Hex())
	}
	if next != model.ReleaseLive && next != model.ReleasePaused {
		return errs.E(errs.KindInvalidConfiguration, op, "cannot set status %s", next)
	}
	prev := fd.status.Get()
	if prev == next {
		return nil
	}
	fd.status.Set(tx, next)
	tx.Emit(fd.address, events.ReleaseStatusSet, fd.address, uint8(prev), uint8(next))
	fd.logger.Info("release status set", zap.Stringer("prev", prev), zap.Stringer("next", next))
	return nil
}

func (fd *FundDeployer) requireLive(op string) error {
	if s := fd.status.Get(); s != model.ReleaseLive {
		return errs.E(errs.KindReleaseNotLive, op, "release %s is %s", fd.version, s)
	}
	return nil
}

// CreateNewFund deploys a vault and its controller, applies the extension
// config and activates the pool.
func (fd *FundDeployer) CreateNewFund(tx *txn.Tx, caller common.Address, p FundParams) (*controller.Controller, error) {
	const op = "create new fund"
	if err := fd.requireLive(op); err != nil {
		return nil, err
	}
	c, err := fd.deployController(tx, caller, ControllerParams{
		DenominationAsset:    p.DenominationAsset,
		SharesActionTimelock: p.SharesActionTimelock,
	})
	if err != nil {
		return nil, err
	}
	v, err := fd.dispatcher.deployVault(tx, fd, p.Owner, p.Name, p.Symbol, c)
	if err != nil {
		return nil, err
	}
	if err := fd.bind(tx, c, v, p.Config); err != nil {
		return nil, err
	}
	if err := c.Activate(tx, fd.address, false); err != nil {
		return nil, err
	}
	fd.controllers.Set(tx, v.Address(), c)
	fd.dispatcher.setStatus(tx, v.Address(), model.FundActive)
	tx.Emit(fd.address, events.NewFundCreated, caller, v.Address(), c.Address())
	fd.logger.Info("fund created",
		zap.String("vault", v.Address().Hex()),
		zap.String("controller", c.Address().Hex()),
		zap.String("owner", p.Owner.Hex()),
		zap.String("name", p.Name))
	return c, nil
}

func (fd *FundDeployer) deployController(tx *txn.Tx, creator common.Address, p ControllerParams) (*controller.Controller, error) {
	c, err := controller.New(controller.Params{
		Address:              tx.CreateAddress(fd.address),
		Deployer:             fd.address,
		DenominationAsset:    p.DenominationAsset,
		SharesActionTimelock: p.SharesActionTimelock,
		PayoutToleranceBps:   fd.toleranceBps,
	}, fd.tokens, fd.values, fd.ext, fd.logger)
	if err != nil {
		return nil, err
	}
	tx.Emit(fd.address, events.ControllerDeployed, creator, c.Address(), p.DenominationAsset, new(big.Int).SetUint64(p.SharesActionTimelock))
	return c, nil
}

func (fd *FundDeployer) bind(tx *txn.Tx, c *controller.Controller, v *vault.Vault, cfg controller.Config) error {
	if err := c.SetVault(tx, fd.address, v); err != nil {
		return err
	}
	return c.ConfigureExtensions(tx, fd.address, cfg)
}

// prepareController deploys and configures a controller for an existing vault
// without binding the vault to it.
func (fd *FundDeployer) prepareController(tx *txn.Tx, op string, caller, vaultAddr common.Address, p ControllerParams) (*vault.Vault, *controller.Controller, error) {
	if err := fd.requireLive(op); err != nil {
		return nil, nil, err
	}
	v, err := fd.requireVaultOwner(op, caller, vaultAddr)
	if err != nil {
		return nil, nil, err
	}
	c, err := fd.deployController(tx, caller, p)
	if err != nil {
		return nil, nil, err
	}
	if err := fd.bind(tx, c, v, p.Config); err != nil {
		return nil, nil, err
	}
	return v, c, nil
}

func (fd *FundDeployer) requireVaultOwner(op string, caller, vaultAddr common.Address) (*vault.Vault, error) {
	v, ok := fd.dispatcher.Vault(vaultAddr)
	if !ok {
		return nil, errs.E(errs.KindInvalidConfiguration, op, "unknown vault %s", vaultAddr.Hex())
	}
	if caller != v.Owner() {
		return nil, errs.E(errs.KindUnauthorized, op, "%s is not the vault owner", caller.Hex())
	}
	return v, nil
}

// discard drops a controller that was prepared but never bound.
func (fd *FundDeployer) discard(tx *txn.Tx, c *controller.Controller) error {
	return c.Discard(tx, fd.address)
}
