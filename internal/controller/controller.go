// Package controller binds a vault to the release extensions that govern it.
//
// A Controller is the vault's only accessor. Every share and custody change
// passes through it: user actions directly, extension requests through the
// VaultActions it exposes while one of its own actions is in progress.
package controller

import (
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fundCore/internal/errs"
	"fundCore/internal/extposition"
	"fundCore/internal/fee"
	"fundCore/internal/fund"
	"fundCore/internal/integration"
	"fundCore/internal/policy"
	"fundCore/internal/token"
	"fundCore/internal/txn"
	"fundCore/internal/valueinterp"
	"fundCore/internal/vault"
)

// DefaultPayoutToleranceBps bounds how far re-valued specific-asset payouts
// may fall below the owed value.
const DefaultPayoutToleranceBps = 50

// Extensions are the managers of the release a controller belongs to.
type Extensions struct {
	Fees         *fee.Manager
	Policies     *policy.Manager
	Integrations *integration.Manager
	Positions    *extposition.Manager
}

// Params describes a new controller.
type Params struct {
	Address           common.Address
	Deployer          common.Address
	DenominationAsset common.Address
	// SharesActionTimelock is the number of seconds after a buy during which
	// the buyer may neither redeem nor transfer shares.
	SharesActionTimelock uint64
	PayoutToleranceBps   uint64
}

type Controller struct {
	address      common.Address
	deployer     common.Address
	denomination common.Address
	timelock     uint64
	toleranceBps uint64
	tokens       *token.Ledger
	values       valueinterp.Interpreter
	ext          Extensions
	logger       *zap.Logger

	vault   txn.Value[*vault.Vault]
	active  txn.Value[bool]
	lastBuy *txn.Map[common.Address, uint64]
	entered bool
}

var _ fund.Context = (*Controller)(nil)
var _ vault.Accessor = (*Controller)(nil)

func New(p Params, tokens *token.Ledger, values valueinterp.Interpreter, ext Extensions, logger *zap.Logger) (*Controller, error) {
	if !tokens.IsRegistered(p.DenominationAsset) {
		return nil, errs.E(errs.KindUnsupportedAsset, "create controller", "denomination asset %s is not registered", p.DenominationAsset.Hex())
	}
	if values == nil || !values.IsSupportedAsset(p.DenominationAsset) {
		return nil, errs.E(errs.KindUnsupportedAsset, "create controller", "denomination asset %s has no price", p.DenominationAsset.Hex())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	tolerance := p.PayoutToleranceBps
	if tolerance == 0 {
		tolerance = DefaultPayoutToleranceBps
	}
	if tolerance > fund.MaxBps {
		return nil, errs.E(errs.KindInvalidConfiguration, "create controller", "payout tolerance %d exceeds %d bps", tolerance, fund.MaxBps)
	}
	return &Controller{
		address:      p.Address,
		deployer:     p.Deployer,
		denomination: p.DenominationAsset,
		timelock:     p.SharesActionTimelock,
		toleranceBps: tolerance,
		tokens:       tokens,
		values:       values,
		ext:          ext,
		logger:       logger.With(zap.String("controller", p.Address.Hex())),
		lastBuy:      txn.NewMap[common.Address, uint64](),
	}, nil
}

func (c *Controller) Address() common.Address                   { return c.address }
func (c *Controller) Deployer() common.Address                  { return c.deployer }
func (c *Controller) DenominationAsset() common.Address         { return c.denomination }
func (c *Controller) Tokens() *token.Ledger                     { return c.tokens }
func (c *Controller) ValueInterpreter() valueinterp.Interpreter { return c.values }
func (c *Controller) Extensions() Extensions                    { return c.ext }
func (c *Controller) SharesActionTimelock() uint64              { return c.timelock }
func (c *Controller) IsActive() bool                            { return c.active.Get() }

// Vault returns the bound vault, or nil before SetVault.
func (c *Controller) Vault() *vault.Vault { return c.vault.Get() }

// LastBuyTimestamp reports when holder last bought shares.
func (c *Controller) LastBuyTimestamp(holder common.Address) uint64 {
	ts, _ := c.lastBuy.Get(holder)
	return ts
}

// SetVault binds the controller to its vault. Deployer only, once.
func (c *Controller) SetVault(tx *txn.Tx, caller common.Address, v *vault.Vault) error {
	const op = "set vault"
	if caller != c.deployer {
		return errs.E(errs.KindUnauthorized, op, "%s is not the deployer", caller.Hex())
	}
	if c.vault.Get() != nil {
		return errs.E(errs.KindAlreadyInitialized, op, "vault already set")
	}
	c.vault.Set(tx, v)
	return nil
}

// Config is the extension setup applied before activation.
type Config struct {
	Fees           []common.Address
	FeeSettings    [][]byte
	Policies       []common.Address
	PolicySettings [][]byte
}

// ConfigureExtensions stores fee and policy settings. Deployer only.
func (c *Controller) ConfigureExtensions(tx *txn.Tx, caller common.Address, cfg Config) error {
	const op = "configure extensions"
	if caller != c.deployer {
		return errs.E(errs.KindUnauthorized, op, "%s is not the deployer", caller.Hex())
	}
	if c.vault.Get() == nil {
		return errs.E(errs.KindInvalidConfiguration, op, "vault not set")
	}
	if c.ext.Fees != nil {
		if err := c.ext.Fees.SetConfigForFund(tx, c, cfg.Fees, cfg.FeeSettings); err != nil {
			return err
		}
	} else if len(cfg.Fees) > 0 {
		return errs.E(errs.KindInvalidConfiguration, op, "release has no fee manager")
	}
	if c.ext.Policies != nil {
		if err := c.ext.Policies.SetConfigForFund(tx, c, cfg.Policies, cfg.PolicySettings); err != nil {
			return err
		}
	} else if len(cfg.Policies) > 0 {
		return errs.E(errs.KindInvalidConfiguration, op, "release has no policy manager")
	}
	return nil
}

// Activate starts a controller that has become its vault's accessor.
// Deployer only.
func (c *Controller) Activate(tx *txn.Tx, caller common.Address, isMigration bool) error {
	const op = "activate controller"
	if caller != c.deployer {
		return errs.E(errs.KindUnauthorized, op, "%s is not the deployer", caller.Hex())
	}
	v := c.vault.Get()
	if v == nil || v.Accessor() != c.address {
		return errs.E(errs.KindInvalidConfiguration, op, "controller is not the vault accessor")
	}
	if c.active.Get() {
		return errs.E(errs.KindAlreadyInitialized, op, "already active")
	}
	release, err := c.enter(op)
	if err != nil {
		return err
	}
	defer release()

	if err := v.AddTrackedAsset(tx, c.address, c.denomination); err != nil {
		return err
	}
	if c.ext.Fees != nil {
		if err := c.ext.Fees.ActivateForFund(tx, c); err != nil {
			return err
		}
	}
	if c.ext.Policies != nil {
		if err := c.ext.Policies.ActivateForFund(tx, c); err != nil {
			return err
		}
	}
	c.active.Set(tx, true)
	c.logger.Info("controller activated", zap.String("vault", v.Address().Hex()), zap.Bool("migration", isMigration))
	return nil
}

// Destruct retires an active controller before its vault moves on. Fee
// shares outstanding are paid, any other shares the vault still holds go to
// the vault owner, and fee and policy records are dropped. Deployer only.
func (c *Controller) Destruct(tx *txn.Tx, caller common.Address) error {
	const op = "destruct controller"
	if caller != c.deployer {
		return errs.E(errs.KindUnauthorized, op, "%s is not the deployer", caller.Hex())
	}
	if !c.active.Get() {
		return errs.E(errs.KindInvalidConfiguration, op, "controller is not active")
	}
	release, err := c.enter(op)
	if err != nil {
		return err
	}
	defer release()

	v := c.vault.Get()
	if c.ext.Fees != nil {
		if err := c.ext.Fees.DeactivateForFund(tx, c); err != nil {
			return err
		}
	}
	if held := v.BalanceOf(v.Address()); held.Sign() > 0 {
		if err := v.TransferShares(tx, c.address, v.Address(), v.Owner(), held); err != nil {
			return err
		}
	}
	if c.ext.Policies != nil {
		if err := c.ext.Policies.DeactivateForFund(tx, c); err != nil {
			return err
		}
	}
	c.active.Set(tx, false)
	c.logger.Info("controller destructed", zap.String("vault", v.Address().Hex()))
	return nil
}

// Discard drops the extension records of a controller that never activated.
// Deployer only.
func (c *Controller) Discard(tx *txn.Tx, caller common.Address) error {
	const op = "discard controller"
	if caller != c.deployer {
		return errs.E(errs.KindUnauthorized, op, "%s is not the deployer", caller.Hex())
	}
	if c.active.Get() {
		return errs.E(errs.KindInvalidConfiguration, op, "controller is active")
	}
	if c.ext.Fees != nil {
		if err := c.ext.Fees.DeactivateForFund(tx, c); err != nil {
			return err
		}
	}
	if c.ext.Policies != nil {
		return c.ext.Policies.DeactivateForFund(tx, c)
	}
	return nil
}

// enter takes the controller's reentrancy lock for the duration of one action.
func (c *Controller) enter(op string) (func(), error) {
	if c.entered {
		return nil, errs.E(errs.KindReentrancyBlocked, op, "controller %s is mid-action", c.address.Hex())
	}
	c.entered = true
	return func() { c.entered = false }, nil
}

func (c *Controller) requireActive(op string) (*vault.Vault, error) {
	if !c.active.Get() {
		return nil, errs.E(errs.KindInvalidConfiguration, op, "controller %s is not active", c.address.Hex())
	}
	return c.vault.Get(), nil
}
