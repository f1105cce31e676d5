package policy

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"fundCore/internal/addresslist"
	"fundCore/internal/errs"
	"fundCore/internal/events"
	"fundCore/internal/fund"
	"fundCore/internal/model"
	"fundCore/internal/settings"
	"fundCore/internal/txn"
)

// listCheck reports whether args pass given the pool's list ids.
type listCheck func(reg *addresslist.Registry, ids []uint64, args model.HookArgs) bool

// ListPolicy validates hook data against address lists chosen per pool.
// Settings: (uint256[] existingListIds, bytes[] newListsData).
type ListPolicy struct {
	address    common.Address
	identifier string
	hooks      []model.Hook
	canDisable bool
	registry   *addresslist.Registry
	check      listCheck
	lists      *txn.Map[common.Address, []uint64]
}

func newListPolicy(address common.Address, registry *addresslist.Registry, identifier string, hook model.Hook, canDisable bool, check listCheck) *ListPolicy {
	return &ListPolicy{
		address:    address,
		identifier: identifier,
		hooks:      []model.Hook{hook},
		canDisable: canDisable,
		registry:   registry,
		check:      check,
		lists:      txn.NewMap[common.Address, []uint64](),
	}
}

// NewAllowedDepositRecipients restricts who may receive newly bought shares.
func NewAllowedDepositRecipients(address common.Address, registry *addresslist.Registry) *ListPolicy {
	return newListPolicy(address, registry, "ALLOWED_DEPOSIT_RECIPIENTS", model.HookPostBuyShares, true,
		func(reg *addresslist.Registry, ids []uint64, args model.HookArgs) bool {
			buy, ok := args.(model.PostBuySharesArgs)
			return !ok || reg.IsInSomeOfLists(ids, buy.Buyer)
		})
}

// NewAllowedAdapters restricts the adapters a pool may call. It cannot be disabled.
func NewAllowedAdapters(address common.Address, registry *addresslist.Registry) *ListPolicy {
	return newListPolicy(address, registry, "ALLOWED_ADAPTERS", model.HookPostCallOnIntegration, false,
		func(reg *addresslist.Registry, ids []uint64, args model.HookArgs) bool {
			call, ok := args.(model.PostCallOnIntegrationArgs)
			return !ok || reg.IsInSomeOfLists(ids, call.Adapter)
		})
}

// NewAllowedAdapterIncomingAssets restricts the assets integrations may bring in.
func NewAllowedAdapterIncomingAssets(address common.Address, registry *addresslist.Registry) *ListPolicy {
	return newListPolicy(address, registry, "ALLOWED_ADAPTER_INCOMING_ASSETS", model.HookPostCallOnIntegration, true,
		func(reg *addresslist.Registry, ids []uint64, args model.HookArgs) bool {
			call, ok := args.(model.PostCallOnIntegrationArgs)
			return !ok || reg.AreAllInSomeOfLists(ids, call.IncomingAssets)
		})
}

// NewAllowedAssetsForRedemption restricts the assets of specific-asset redemptions.
func NewAllowedAssetsForRedemption(address common.Address, registry *addresslist.Registry) *ListPolicy {
	return newListPolicy(address, registry, "ALLOWED_ASSETS_FOR_REDEMPTION", model.HookRedeemSharesForSpecificAssets, true,
		func(reg *addresslist.Registry, ids []uint64, args model.HookArgs) bool {
			redeem, ok := args.(model.RedeemSharesForSpecificAssetsArgs)
			return !ok || reg.AreAllInSomeOfLists(ids, redeem.Assets)
		})
}

// NewAllowedSharesTransferRecipients restricts who may receive transferred shares.
func NewAllowedSharesTransferRecipients(address common.Address, registry *addresslist.Registry) *ListPolicy {
	return newListPolicy(address, registry, "ALLOWED_SHARES_TRANSFER_RECIPIENTS", model.HookPreTransferShares, true,
		func(reg *addresslist.Registry, ids []uint64, args model.HookArgs) bool {
			transfer, ok := args.(model.PreTransferSharesArgs)
			return !ok || reg.IsInSomeOfLists(ids, transfer.Recipient)
		})
}

// NewAllowedTrackedAssets restricts the assets a vault may start tracking.
func NewAllowedTrackedAssets(address common.Address, registry *addresslist.Registry) *ListPolicy {
	return newListPolicy(address, registry, "ALLOWED_TRACKED_ASSETS", model.HookAddTrackedAssets, true,
		func(reg *addresslist.Registry, ids []uint64, args model.HookArgs) bool {
			added, ok := args.(model.TrackedAssetsArgs)
			return !ok || reg.AreAllInSomeOfLists(ids, added.Assets)
		})
}

func (p *ListPolicy) Address() common.Address        { return p.address }
func (p *ListPolicy) Identifier() string             { return p.identifier }
func (p *ListPolicy) ImplementedHooks() []model.Hook { return p.hooks }
func (p *ListPolicy) CanDisable() bool               { return p.canDisable }

// DeactivateForFund forgets the pool's list ids. The lists stay in the registry.
func (p *ListPolicy) DeactivateForFund(tx *txn.Tx, f fund.Context) {
	p.lists.Delete(tx, f.Address())
}

// ListIDs returns the lists a pool validates against.
func (p *ListPolicy) ListIDs(controller common.Address) []uint64 {
	ids, _ := p.lists.Get(controller)
	return append([]uint64(nil), ids...)
}

func (p *ListPolicy) AddFundSettings(tx *txn.Tx, f fund.Context, data []byte) error {
	return p.setLists(tx, f, data)
}

func (p *ListPolicy) UpdateFundSettings(tx *txn.Tx, f fund.Context, data []byte) error {
	return p.setLists(tx, f, data)
}

func (p *ListPolicy) setLists(tx *txn.Tx, f fund.Context, data []byte) error {
	op := p.identifier + " settings"
	cfg, err := settings.DecodeListPolicy(data)
	if err != nil {
		return errs.Wrap(errs.KindInvalidConfiguration, op, err)
	}
	ids := make([]uint64, 0, len(cfg.ExistingListIDs)+len(cfg.NewLists))
	for _, id := range cfg.ExistingListIDs {
		if !id.IsUint64() || !p.registry.ListExists(id.Uint64()) {
			return errs.E(errs.KindInvalidConfiguration, op, "unknown list %s", id)
		}
		ids = append(ids, id.Uint64())
	}
	for _, spec := range cfg.NewLists {
		id, err := p.registry.CreateList(tx, p.address, f.Vault().Address(), spec.UpdateType, spec.Items)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return errs.E(errs.KindInvalidConfiguration, op, "no lists given")
	}
	p.lists.Set(tx, f.Address(), ids)

	emitted := make([]*big.Int, len(ids))
	for i, id := range ids {
		emitted[i] = new(big.Int).SetUint64(id)
	}
	tx.Emit(p.address, events.ListsSetForFund, f.Address(), p.address, emitted)
	return nil
}

func (p *ListPolicy) ValidateRule(_ *txn.Tx, f fund.Context, args model.HookArgs) (bool, error) {
	ids, ok := p.lists.Get(f.Address())
	if !ok {
		return true, nil
	}
	return p.check(p.registry, ids, args), nil
}
