// Package addresslist keeps the shared address lists used by list-based policies.
package addresslist

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fundCore/internal/errs"
	"fundCore/internal/events"
	"fundCore/internal/settings"
	"fundCore/internal/txn"
)

// OwnerLookup resolves the owner of a vault, used when a list is owned by a vault.
type OwnerLookup interface {
	VaultOwner(vault common.Address) (common.Address, bool)
}

type listInfo struct {
	owner      common.Address
	updateType settings.UpdateType
}

type itemKey struct {
	id   uint64
	item common.Address
}

// Registry stores address lists by id. Ids start at 1.
type Registry struct {
	address common.Address
	logger  *zap.Logger
	owners  OwnerLookup
	lists   *txn.Map[uint64, listInfo]
	items   *txn.Map[itemKey, struct{}]
	count   txn.Value[uint64]
}

func NewRegistry(address common.Address, owners OwnerLookup, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		address: address,
		logger:  logger,
		owners:  owners,
		lists:   txn.NewMap[uint64, listInfo](),
		items:   txn.NewMap[itemKey, struct{}](),
	}
}

func (r *Registry) Address() common.Address {
	return r.address
}

// SetOwnerLookup replaces the vault owner resolver.
func (r *Registry) SetOwnerLookup(owners OwnerLookup) {
	r.owners = owners
}

// CreateList creates a list and returns its id.
func (r *Registry) CreateList(tx *txn.Tx, creator, owner common.Address, updateType settings.UpdateType, initial []common.Address) (uint64, error) {
	if updateType > settings.UpdateAddAndRemove {
		return 0, errs.E(errs.KindInvalidConfiguration, "create list", "invalid update type %d", updateType)
	}
	id := r.count.Get() + 1
	r.count.Set(tx, id)
	r.lists.Set(tx, id, listInfo{owner: owner, updateType: updateType})
	tx.Emit(r.address, events.ListCreated, creator, owner, new(big.Int).SetUint64(id), uint8(updateType))
	if len(initial) > 0 {
		r.addItems(tx, id, initial)
	}
	r.logger.Debug("address list created", zap.Uint64("id", id), zap.String("owner", owner.Hex()), zap.Int("items", len(initial)))
	return id, nil
}

// AddToList adds items to a list whose update type allows additions.
func (r *Registry) AddToList(tx *txn.Tx, caller common.Address, id uint64, items []common.Address) error {
	const op = "add to list"
	info, err := r.authorize(op, caller, id)
	if err != nil {
		return err
	}
	if info.updateType != settings.UpdateAddOnly && info.updateType != settings.UpdateAddAndRemove {
		return errs.E(errs.KindUnauthorized, op, "list %d does not allow additions", id)
	}
	r.addItems(tx, id, items)
	return nil
}

// RemoveFromList removes items from a list whose update type allows removals.
func (r *Registry) RemoveFromList(tx *txn.Tx, caller common.Address, id uint64, items []common.Address) error {
	const op = "remove from list"
	info, err := r.authorize(op, caller, id)
	if err != nil {
		return err
	}
	if info.updateType != settings.UpdateRemoveOnly && info.updateType != settings.UpdateAddAndRemove {
		return errs.E(errs.KindUnauthorized, op, "list %d does not allow removals", id)
	}
	for _, item := range items {
		r.items.Delete(tx, itemKey{id: id, item: item})
	}
	tx.Emit(r.address, events.AddressesRemoved, new(big.Int).SetUint64(id), copyAddresses(items))
	return nil
}

func (r *Registry) addItems(tx *txn.Tx, id uint64, items []common.Address) {
	for _, item := range items {
		r.items.Set(tx, itemKey{id: id, item: item}, struct{}{})
	}
	tx.Emit(r.address, events.AddressesAdded, new(big.Int).SetUint64(id), copyAddresses(items))
}

func (r *Registry) authorize(op string, caller common.Address, id uint64) (listInfo, error) {
	info, ok := r.lists.Get(id)
	if !ok {
		return listInfo{}, errs.E(errs.KindInvalidConfiguration, op, "unknown list %d", id)
	}
	if caller == info.owner {
		return info, nil
	}
	if r.owners != nil {
		if vaultOwner, isVault := r.owners.VaultOwner(info.owner); isVault && vaultOwner == caller {
			return info, nil
		}
	}
	return listInfo{}, errs.E(errs.KindUnauthorized, op, "%s cannot update list %d", caller.Hex(), id)
}

func (r *Registry) ListExists(id uint64) bool {
	_, ok := r.lists.Get(id)
	return ok
}

func (r *Registry) ListOwner(id uint64) (common.Address, bool) {
	info, ok := r.lists.Get(id)
	return info.owner, ok
}

func (r *Registry) ListCount() uint64 {
	return r.count.Get()
}

func (r *Registry) IsInList(id uint64, item common.Address) bool {
	_, ok := r.items.Get(itemKey{id: id, item: item})
	return ok
}

// IsInSomeOfLists reports whether item is in at least one of ids.
func (r *Registry) IsInSomeOfLists(ids []uint64, item common.Address) bool {
	for _, id := range ids {
		if r.IsInList(id, item) {
			return true
		}
	}
	return false
}

// AreAllInSomeOfLists reports whether every item is in at least one of ids.
func (r *Registry) AreAllInSomeOfLists(ids []uint64, items []common.Address) bool {
	for _, item := range items {
		if !r.IsInSomeOfLists(ids, item) {
			return false
		}
	}
	return true
}

func copyAddresses(in []common.Address) []common.Address {
	out := make([]common.Address, len(in))
	copy(out, in)
	return out
}
