package extposition

import (
	"math/big"

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

type positionType struct {
	label   string
	parser  Parser
	factory Factory
}

type record struct {
	typeID   uint64
	vault    common.Address
	position Position
}

// Manager is the ExternalPositionManager of a release.
type Manager struct {
	address common.Address
	owner   common.Address
	tokens  *token.Ledger
	logger  *zap.Logger

	types     *txn.Map[uint64, positionType]
	typeCount txn.Value[uint64]
	positions *txn.Map[common.Address, record]
}

var _ fund.Extension = (*Manager)(nil)

func NewManager(address, owner common.Address, tokens *token.Ledger, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		address:   address,
		owner:     owner,
		tokens:    tokens,
		logger:    logger.With(zap.String("component", "external_position_manager")),
		types:     txn.NewMap[uint64, positionType](),
		positions: txn.NewMap[common.Address, record](),
	}
}

func (m *Manager) Address() common.Address { return m.address }

// AddType registers a position kind and returns its type id. Release owner only.
func (m *Manager) AddType(tx *txn.Tx, caller common.Address, label string, parser Parser, factory Factory) (uint64, error) {
	const op = "add external position type"
	if caller != m.owner {
		return 0, errs.E(errs.KindUnauthorized, op, "%s is not the release owner", caller.Hex())
	}
	if parser == nil || factory == nil {
		return 0, errs.E(errs.KindInvalidConfiguration, op, "type %q needs a parser and a factory", label)
	}
	id := m.typeCount.Get()
	m.typeCount.Set(tx, id+1)
	m.types.Set(tx, id, positionType{label: label, parser: parser, factory: factory})
	tx.Emit(m.address, events.ExternalPositionTypeAdded, new(big.Int).SetUint64(id), label)
	return id, nil
}

// TypeLabel returns the label of a registered type.
func (m *Manager) TypeLabel(id uint64) (string, bool) {
	t, ok := m.types.Get(id)
	return t.label, ok
}

// Position returns a deployed position by proxy address.
func (m *Manager) Position(addr common.Address) (Position, bool) {
	rec, ok := m.positions.Get(addr)
	return rec.position, ok
}

// ReceiveCallFromController handles external position actions of asset managers.
func (m *Manager) ReceiveCallFromController(tx *txn.Tx, f fund.Context, caller common.Address, actionID uint64, data []byte) error {
	const op = "external position action"
	if !f.Vault().CanManageAssets(caller) {
		return errs.E(errs.KindUnauthorized, op, "%s cannot manage assets", caller.Hex())
	}
	switch actionID {
	case model.PositionActionCreate:
		create, err := settings.DecodePositionCreate(data)
		if err != nil {
			return errs.Wrap(errs.KindInvalidConfiguration, op, err)
		}
		return m.create(tx, f, caller, create)
	case model.PositionActionCall:
		addr, actionData, err := settings.DecodeAddressBytes(data)
		if err != nil {
			return errs.Wrap(errs.KindInvalidConfiguration, op, err)
		}
		return m.call(tx, f, caller, addr, actionData)
	case model.PositionActionRemove, model.PositionActionReactivate:
		addr, err := settings.DecodeAddress(data)
		if err != nil {
			return errs.Wrap(errs.KindInvalidConfiguration, op, err)
		}
		if actionID == model.PositionActionRemove {
			return m.remove(tx, f, caller, addr)
		}
		return m.reactivate(tx, f, addr)
	default:
		return errs.E(errs.KindInvalidConfiguration, op, "unknown action %d", actionID)
	}
}

func (m *Manager) create(tx *txn.Tx, f fund.Context, caller common.Address, c settings.PositionCreate) error {
	const op = "create external position"
	if !c.TypeID.IsUint64() {
		return errs.E(errs.KindUnsupportedPositionType, op, "type %s", c.TypeID)
	}
	typeID := c.TypeID.Uint64()
	pt, ok := m.types.Get(typeID)
	if !ok {
		return errs.E(errs.KindUnsupportedPositionType, op, "type %d", typeID)
	}
	v := f.Vault()
	if err := pt.parser.ParseInitArgs(v.Address(), c.InitArgs); err != nil {
		return errs.Wrap(errs.KindInvalidConfiguration, op, err)
	}

	addr := tx.CreateAddress(m.address)
	pos := pt.factory(addr, v.Address())
	if err := pos.Init(tx, c.InitArgs); err != nil {
		return err
	}
	if err := f.AddExternalPosition(tx, m.address, addr); err != nil {
		return err
	}
	m.positions.Set(tx, addr, record{typeID: typeID, vault: v.Address(), position: pos})
	tx.Emit(m.address, events.ExternalPositionDeployed, f.Address(), v.Address(), addr, new(big.Int).SetUint64(typeID), append([]byte{}, c.InitArgs...))
	m.logger.Info("external position deployed",
		zap.String("controller", f.Address().Hex()),
		zap.String("position", addr.Hex()),
		zap.String("type", pt.label))

	if err := f.ValidatePolicies(tx, model.CreateExternalPositionArgs{
		Caller:           caller,
		TypeID:           typeID,
		ExternalPosition: addr,
		InitArgs:         c.InitArgs,
	}); err != nil {
		return err
	}
	if len(c.CallArgs) > 0 {
		return m.call(tx, f, caller, addr, c.CallArgs)
	}
	return nil
}

func (m *Manager) call(tx *txn.Tx, f fund.Context, caller, addr common.Address, actionData []byte) error {
	const op = "call on external position"
	rec, err := m.activeRecord(op, f, addr)
	if err != nil {
		return err
	}
	id, args, err := settings.DecodeUint256Bytes(actionData)
	if err != nil {
		return errs.Wrap(errs.KindInvalidConfiguration, op, err)
	}
	if !id.IsUint64() {
		return errs.E(errs.KindInvalidConfiguration, op, "action id %s out of range", id)
	}
	actionID := id.Uint64()
	pt, _ := m.types.Get(rec.typeID)

	mv, err := pt.parser.ParseAssetsForAction(addr, actionID, args)
	if err != nil {
		return errs.Wrap(errs.KindInvalidConfiguration, op, err)
	}
	if len(mv.AssetsToTransfer) != len(mv.AmountsToTransfer) {
		return errs.E(errs.KindInvalidConfiguration, op, "%d assets to transfer, %d amounts", len(mv.AssetsToTransfer), len(mv.AmountsToTransfer))
	}
	for i, asset := range mv.AssetsToTransfer {
		if err := f.WithdrawAssetTo(tx, m.address, asset, addr, mv.AmountsToTransfer[i]); err != nil {
			return err
		}
	}
	if err := rec.position.ReceiveCallFromVault(tx, m.tokens.Wallet(addr), rec.vault, actionID, args); err != nil {
		return err
	}

	vi := f.ValueInterpreter()
	for _, asset := range mv.AssetsToReceive {
		if f.Vault().IsTrackedAsset(asset) {
			continue
		}
		if vi == nil || !vi.IsSupportedAsset(asset) {
			return errs.E(errs.KindUnsupportedAsset, op, "received asset %s", asset.Hex())
		}
		if err := f.AddTrackedAsset(tx, m.address, asset); err != nil {
			return err
		}
	}

	tx.Emit(m.address, events.CallOnExternalPositionExecuted,
		f.Address(), addr, id, append([]byte{}, args...),
		mv.AssetsToTransfer, mv.AmountsToTransfer, mv.AssetsToReceive)
	return f.ValidatePolicies(tx, model.CallOnExternalPositionArgs{
		Caller:            caller,
		ExternalPosition:  addr,
		AssetsToTransfer:  mv.AssetsToTransfer,
		AmountsToTransfer: mv.AmountsToTransfer,
		AssetsToReceive:   mv.AssetsToReceive,
		ActionID:          actionID,
		ActionArgs:        args,
	})
}

func (m *Manager) remove(tx *txn.Tx, f fund.Context, caller, addr common.Address) error {
	const op = "remove external position"
	rec, err := m.activeRecord(op, f, addr)
	if err != nil {
		return err
	}
	for _, read := range []func() ([]common.Address, []*big.Int, error){rec.position.ManagedAssets, rec.position.DebtAssets} {
		assets, amounts, err := read()
		if err != nil {
			return err
		}
		for i, amount := range amounts {
			if amount.Sign() != 0 {
				return errs.E(errs.KindPositionNotReconciled, op, "%s still holds %s of %s", addr.Hex(), amount, assets[i].Hex())
			}
		}
	}
	if err := f.ValidatePolicies(tx, model.RemoveExternalPositionArgs{Caller: caller, ExternalPosition: addr}); err != nil {
		return err
	}
	return f.RemoveExternalPosition(tx, m.address, addr)
}

func (m *Manager) reactivate(tx *txn.Tx, f fund.Context, addr common.Address) error {
	const op = "reactivate external position"
	rec, ok := m.positions.Get(addr)
	if !ok || rec.vault != f.Vault().Address() {
		return errs.E(errs.KindInvalidConfiguration, op, "%s is not a position of this vault", addr.Hex())
	}
	if f.Vault().IsActiveExternalPosition(addr) {
		return errs.E(errs.KindInvalidConfiguration, op, "%s is already active", addr.Hex())
	}
	return f.AddExternalPosition(tx, m.address, addr)
}

func (m *Manager) activeRecord(op string, f fund.Context, addr common.Address) (record, error) {
	rec, ok := m.positions.Get(addr)
	if !ok || rec.vault != f.Vault().Address() || !f.Vault().IsActiveExternalPosition(addr) {
		return record{}, errs.E(errs.KindInvalidConfiguration, op, "%s is not an active position of this vault", addr.Hex())
	}
	return rec, nil
}
