// Package vault holds a pool's custody and share accounting.
//
// A Vault trusts exactly one accessor, the pool's controller, for every
// state-changing call except holder transfers and owner administration. The
// dispatcher alone may replace the accessor.
package vault

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fundCore/internal/errs"
	"fundCore/internal/events"
	"fundCore/internal/token"
	"fundCore/internal/txn"
)

// MaxTrackedAssets bounds the number of assets a vault values and pays out.
const MaxTrackedAssets = 20

// Accessor is the controller bound to a vault.
type Accessor interface {
	Address() common.Address
	DenominationAsset() common.Address
	PreTransferSharesHook(tx *txn.Tx, sender, recipient common.Address, amount *big.Int) error
}

// Params describes a new vault.
type Params struct {
	Address    common.Address
	Dispatcher common.Address
	Owner      common.Address
	Name       string
	Symbol     string
}

type Vault struct {
	address    common.Address
	dispatcher common.Address
	name       string
	symbol     string
	tokens     *token.Ledger
	logger     *zap.Logger

	owner     txn.Value[common.Address]
	nominated txn.Value[common.Address]
	accessor  txn.Value[Accessor]
	managers  *txn.Map[common.Address, struct{}]
	balances  *txn.Map[common.Address, *big.Int]
	supply    txn.Value[*big.Int]
	tracked   txn.List[common.Address]
	positions txn.List[common.Address]
}

// New creates a vault owned by p.Owner with no accessor.
func New(tx *txn.Tx, p Params, tokens *token.Ledger, logger *zap.Logger) (*Vault, error) {
	if p.Owner == (common.Address{}) {
		return nil, errs.E(errs.KindInvalidConfiguration, "create vault", "owner is zero")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &Vault{
		address:    p.Address,
		dispatcher: p.Dispatcher,
		name:       p.Name,
		symbol:     p.Symbol,
		tokens:     tokens,
		logger:     logger.With(zap.String("vault", p.Address.Hex())),
		managers:   txn.NewMap[common.Address, struct{}](),
		balances:   txn.NewMap[common.Address, *big.Int](),
	}
	v.owner.Set(tx, p.Owner)
	v.supply.Set(tx, new(big.Int))
	tx.Emit(v.address, events.OwnershipTransferred, common.Address{}, p.Owner)
	return v, nil
}

func (v *Vault) Address() common.Address    { return v.address }
func (v *Vault) Dispatcher() common.Address { return v.dispatcher }
func (v *Vault) Name() string               { return v.name }
func (v *Vault) Symbol() string             { return v.symbol }
func (v *Vault) Decimals() uint8            { return 18 }
func (v *Vault) Owner() common.Address      { return v.owner.Get() }

func (v *Vault) NominatedOwner() common.Address { return v.nominated.Get() }

// Accessor returns the address of the bound controller, or zero.
func (v *Vault) Accessor() common.Address {
	if a := v.accessor.Get(); a != nil {
		return a.Address()
	}
	return common.Address{}
}

func (v *Vault) BalanceOf(holder common.Address) *big.Int {
	if b, ok := v.balances.Get(holder); ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (v *Vault) TotalSupply() *big.Int {
	if s := v.supply.Get(); s != nil {
		return new(big.Int).Set(s)
	}
	return new(big.Int)
}

// AssetBalance returns the vault's custody balance of asset.
func (v *Vault) AssetBalance(asset common.Address) *big.Int {
	return v.tokens.BalanceOf(asset, v.address)
}

func (v *Vault) TrackedAssets() []common.Address          { return v.tracked.Items() }
func (v *Vault) IsTrackedAsset(asset common.Address) bool { return v.tracked.Contains(asset) }

func (v *Vault) ActiveExternalPositions() []common.Address { return v.positions.Items() }

func (v *Vault) IsActiveExternalPosition(position common.Address) bool {
	return v.positions.Contains(position)
}

func (v *Vault) IsAssetManager(who common.Address) bool {
	_, ok := v.managers.Get(who)
	return ok
}

// CanManageAssets reports whether who may direct the vault's assets.
func (v *Vault) CanManageAssets(who common.Address) bool {
	return who == v.Owner() || v.IsAssetManager(who)
}

func (v *Vault) onlyAccessor(op string, caller common.Address) error {
	a := v.accessor.Get()
	if a == nil || a.Address() != caller {
		return errs.E(errs.KindUnauthorized, op, "%s is not the accessor", caller.Hex())
	}
	return nil
}

func (v *Vault) onlyOwner(op string, caller common.Address) error {
	if caller != v.Owner() {
		return errs.E(errs.KindUnauthorized, op, "%s is not the owner", caller.Hex())
	}
	return nil
}
