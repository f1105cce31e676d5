package integration

import (
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fundCore/internal/errs"
	"fundCore/internal/events"
	"fundCore/internal/fund"
	"fundCore/internal/model"
	"fundCore/internal/settings"
	"fundCore/internal/token"
	"fundCore/internal/txn"
)

// Manager is the IntegrationManager of a release.
type Manager struct {
	address  common.Address
	owner    common.Address
	tokens   *token.Ledger
	logger   *zap.Logger
	adapters *txn.Map[common.Address, Adapter]
}

var _ fund.Extension = (*Manager)(nil)

func NewManager(address, owner common.Address, tokens *token.Ledger, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		address:  address,
		owner:    owner,
		tokens:   tokens,
		logger:   logger.With(zap.String("component", "integration_manager")),
		adapters: txn.NewMap[common.Address, Adapter](),
	}
}

func (m *Manager) Address() common.Address { return m.address }

// RegisterAdapters adds adapters pools may call. Release owner only.
func (m *Manager) RegisterAdapters(tx *txn.Tx, caller common.Address, adapters ...Adapter) error {
	const op = "register adapters"
	if caller != m.owner {
		return errs.E(errs.KindUnauthorized, op, "%s is not the release owner", caller.Hex())
	}
	for _, a := range adapters {
		if _, ok := m.adapters.Get(a.Address()); ok {
			return errs.E(errs.KindAlreadyInitialized, op, "adapter %s", a.Address().Hex())
		}
		m.adapters.Set(tx, a.Address(), a)
		tx.Emit(m.address, events.AdapterRegistered, a.Address(), a.Identifier())
	}
	return nil
}

// DeregisterAdapters removes adapters. Release owner only.
func (m *Manager) DeregisterAdapters(tx *txn.Tx, caller common.Address, adapters ...common.Address) error {
	const op = "deregister adapters"
	if caller != m.owner {
		return errs.E(errs.KindUnauthorized, op, "%s is not the release owner", caller.Hex())
	}
	for _, addr := range adapters {
		if _, ok := m.adapters.Get(addr); !ok {
			return errs.E(errs.KindInvalidConfiguration, op, "adapter %s is not registered", addr.Hex())
		}
		m.adapters.Delete(tx, addr)
		tx.Emit(m.address, events.AdapterDeregistered, addr)
	}
	return nil
}

func (m *Manager) IsRegisteredAdapter(addr common.Address) bool {
	_, ok := m.adapters.Get(addr)
	return ok
}

// ReceiveCallFromController handles integration actions of asset managers.
func (m *Manager) ReceiveCallFromController(tx *txn.Tx, f fund.Context, caller common.Address, actionID uint64, data []byte) error {
	const op = "integration action"
	if !f.Vault().CanManageAssets(caller) {
		return errs.E(errs.KindUnauthorized, op, "%s cannot manage assets", caller.Hex())
	}
	switch actionID {
	case model.IntegrationActionCallOnIntegration:
		call, err := settings.DecodeIntegrationCall(data)
		if err != nil {
			return errs.Wrap(errs.KindInvalidConfiguration, op, err)
		}
		return m.callOnIntegration(tx, f, caller, call)
	case model.IntegrationActionAddTrackedAssets:
		assets, err := settings.DecodeAddresses(data)
		if err != nil {
			return errs.Wrap(errs.KindInvalidConfiguration, op, err)
		}
		return m.addTrackedAssets(tx, f, caller, assets)
	case model.IntegrationActionRemoveTrackedAssets:
		assets, err := settings.DecodeAddresses(data)
		if err != nil {
			return errs.Wrap(errs.KindInvalidConfiguration, op, err)
		}
		return m.removeTrackedAssets(tx, f, caller, assets)
	default:
		return errs.E(errs.KindInvalidConfiguration, op, "unknown action %d", actionID)
	}
}

func (m *Manager) callOnIntegration(tx *txn.Tx, f fund.Context, caller common.Address, call settings.IntegrationCall) error {
	const op = "call on integration"
	adapter, ok := m.adapters.Get(call.Adapter)
	if !ok {
		return errs.E(errs.KindInvalidConfiguration, op, "adapter %s is not registered", call.Adapter.Hex())
	}
	v := f.Vault()

	decl, err := adapter.ParseAssetsForAction(v.Address(), call.Selector, call.Data)
	if err != nil {
		return errs.Wrap(errs.KindInvalidConfiguration, op, err)
	}
	if err := validateDeclaration(decl); err != nil {
		return err
	}

	before := snapshotBalances(v, decl)
	for i, asset := range decl.SpendAssets {
		if err := f.WithdrawAssetTo(tx, m.address, asset, adapter.Address(), decl.MaxSpendAssetAmounts[i]); err != nil {
			return err
		}
	}
	if err := adapter.Execute(tx, m.tokens.Wallet(adapter.Address()), v.Address(), call.Selector, call.Data); err != nil {
		return err
	}

	incoming, spent, err := reconcile(v, decl, before)
	if err != nil {
		return err
	}

	var added []common.Address
	for i, asset := range decl.IncomingAssets {
		if incoming[i].Sign() > 0 && !v.IsTrackedAsset(asset) {
			added = append(added, asset)
		}
	}
	if len(added) > 0 {
		if err := m.addTrackedAssets(tx, f, caller, added); err != nil {
			return err
		}
	}

	tx.Emit(m.address, events.CallOnIntegrationExecuted,
		f.Address(), caller, adapter.Address(), call.Selector,
		decl.IncomingAssets, incoming, decl.SpendAssets, spent)
	m.logger.Debug("integration executed",
		zap.String("controller", f.Address().Hex()),
		zap.String("adapter", adapter.Identifier()),
		zap.Int("incoming", len(decl.IncomingAssets)),
		zap.Int("spend", len(decl.SpendAssets)))

	return f.ValidatePolicies(tx, model.PostCallOnIntegrationArgs{
		Caller:               caller,
		Adapter:              adapter.Address(),
		Selector:             call.Selector,
		IncomingAssets:       decl.IncomingAssets,
		IncomingAssetAmounts: incoming,
		SpendAssets:          decl.SpendAssets,
		SpendAssetAmounts:    spent,
	})
}

func (m *Manager) addTrackedAssets(tx *txn.Tx, f fund.Context, caller common.Address, assets []common.Address) error {
	const op = "add tracked assets"
	vi := f.ValueInterpreter()
	for _, asset := range assets {
		if vi == nil || !vi.IsSupportedAsset(asset) {
			return errs.E(errs.KindUnsupportedAsset, op, "asset %s", asset.Hex())
		}
		if err := f.AddTrackedAsset(tx, m.address, asset); err != nil {
			return err
		}
	}
	return f.ValidatePolicies(tx, model.TrackedAssetsArgs{Caller: caller, Assets: assets})
}

func (m *Manager) removeTrackedAssets(tx *txn.Tx, f fund.Context, caller common.Address, assets []common.Address) error {
	for _, asset := range assets {
		if err := f.RemoveTrackedAsset(tx, m.address, asset); err != nil {
			return err
		}
	}
	return f.ValidatePolicies(tx, model.TrackedAssetsArgs{Caller: caller, Assets: assets, Removed: true})
}
