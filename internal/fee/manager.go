package fee

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fundCore/internal/errs"
	"fundCore/internal/events"
	"fundCore/internal/fund"
	"fundCore/internal/model"
	"fundCore/internal/settings"
	"fundCore/internal/txn"
)

type recordKey struct {
	controller common.Address
	fee        common.Address
}

type record struct {
	settings    []byte
	recipient   common.Address
	outstanding *big.Int
}

// Manager configures fees per pool and settles them on hooks.
type Manager struct {
	address common.Address
	owner   common.Address
	logger  *zap.Logger

	registry *txn.Map[common.Address, Fee]
	enabled  *txn.Map[common.Address, []common.Address]
	records  *txn.Map[recordKey, record]
	funds    *txn.Map[common.Address, fund.Context]
	settling map[common.Address]bool
}

var _ fund.Extension = (*Manager)(nil)
var _ fund.Lifecycle = (*Manager)(nil)

func NewManager(address, owner common.Address, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		address:  address,
		owner:    owner,
		logger:   logger.With(zap.String("component", "fee_manager")),
		registry: txn.NewMap[common.Address, Fee](),
		enabled:  txn.NewMap[common.Address, []common.Address](),
		records:  txn.NewMap[recordKey, record](),
		funds:    txn.NewMap[common.Address, fund.Context](),
		settling: make(map[common.Address]bool),
	}
}

func (m *Manager) Address() common.Address { return m.address }

// RegisterFee makes a fee available to pools of this release.
func (m *Manager) RegisterFee(tx *txn.Tx, caller common.Address, f Fee) error {
	const op = "register fee"
	if caller != m.owner {
		return errs.E(errs.KindUnauthorized, op, "%s is not the release owner", caller.Hex())
	}
	if _, ok := m.registry.Get(f.Address()); ok {
		return errs.E(errs.KindAlreadyInitialized, op, "fee %s", f.Address().Hex())
	}
	m.registry.Set(tx, f.Address(), f)
	return nil
}

func (m *Manager) Fee(address common.Address) (Fee, bool) {
	return m.registry.Get(address)
}

// EnabledFees returns the fees configured for a controller in registration order.
func (m *Manager) EnabledFees(controller common.Address) []common.Address {
	list, _ := m.enabled.Get(controller)
	out := make([]common.Address, len(list))
	copy(out, list)
	return out
}

// SharesOutstanding returns the shares a fee holds in the vault for its recipient.
func (m *Manager) SharesOutstanding(controller, fee common.Address) *big.Int {
	if rec, ok := m.records.Get(recordKey{controller: controller, fee: fee}); ok && rec.outstanding != nil {
		return new(big.Int).Set(rec.outstanding)
	}
	return new(big.Int)
}

// SetConfigForFund records the fees and their settings for a new controller.
func (m *Manager) SetConfigForFund(tx *txn.Tx, f fund.Context, fees []common.Address, settingsData [][]byte) error {
	const op = "set fee config"
	controller := f.Address()
	if _, ok := m.enabled.Get(controller); ok {
		return errs.E(errs.KindAlreadyInitialized, op, "fees already set for %s", controller.Hex())
	}
	if len(fees) != len(settingsData) {
		return errs.E(errs.KindInvalidConfiguration, op, "%d fees, %d settings", len(fees), len(settingsData))
	}
	seen := make(map[common.Address]bool, len(fees))
	for i, addr := range fees {
		if seen[addr] {
			return errs.E(errs.KindInvalidConfiguration, op, "duplicate fee %s", addr.Hex())
		}
		seen[addr] = true
		impl, ok := m.registry.Get(addr)
		if !ok {
			return errs.E(errs.KindInvalidConfiguration, op, "fee %s is not registered", addr.Hex())
		}
		if err := impl.AddFundSettings(tx, f, settingsData[i]); err != nil {
			return err
		}
		m.records.Set(tx, recordKey{controller: controller, fee: addr}, record{
			settings:    append([]byte(nil), settingsData[i]...),
			outstanding: new(big.Int),
		})
		tx.Emit(m.address, events.FeeSettingsAddedForFund, controller, addr, append([]byte{}, settingsData[i]...))
	}
	m.enabled.Set(tx, controller, append([]common.Address(nil), fees...))
	m.funds.Set(tx, controller, f)
	return nil
}

// ActivateForFund lets each configured fee initialize its per-pool state.
func (m *Manager) ActivateForFund(tx *txn.Tx, f fund.Context) error {
	for _, addr := range m.EnabledFees(f.Address()) {
		impl, _ := m.registry.Get(addr)
		if err := impl.ActivateForFund(tx, f); err != nil {
			return err
		}
	}
	return nil
}

// DeactivateForFund pays every fee's shares outstanding and forgets the pool,
// together with the state each fee kept for it.
func (m *Manager) DeactivateForFund(tx *txn.Tx, f fund.Context) error {
	controller := f.Address()
	fees := m.EnabledFees(controller)
	for _, addr := range fees {
		if err := m.payOutstanding(tx, f, addr); err != nil {
			return err
		}
	}
	for _, addr := range fees {
		m.records.Delete(tx, recordKey{controller: controller, fee: addr})
		if impl, ok := m.registry.Get(addr); ok {
			impl.DeactivateForFund(tx, f)
		}
	}
	m.enabled.Delete(tx, controller)
	m.funds.Delete(tx, controller)
	m.logger.Debug("fees deactivated", zap.String("controller", controller.Hex()), zap.Int("fees", len(fees)))
	return nil
}

// RecipientFor returns the payee of a fee, defaulting to the vault owner.
func (m *Manager) RecipientFor(f fund.Context, fee common.Address) common.Address {
	if rec, ok := m.records.Get(recordKey{controller: f.Address(), fee: fee}); ok && rec.recipient != (common.Address{}) {
		return rec.recipient
	}
	return f.Vault().Owner()
}

// SetRecipientForFund overrides the payee of a fee. Only the vault owner may call it.
func (m *Manager) SetRecipientForFund(tx *txn.Tx, caller, controller, fee, recipient common.Address) error {
	const op = "set fee recipient"
	f, ok := m.funds.Get(controller)
	if !ok {
		return errs.E(errs.KindInvalidConfiguration, op, "unknown controller %s", controller.Hex())
	}
	if caller != f.Vault().Owner() {
		return errs.E(errs.KindUnauthorized, op, "%s is not the vault owner", caller.Hex())
	}
	key := recordKey{controller: controller, fee: fee}
	rec, ok := m.records.Get(key)
	if !ok {
		return errs.E(errs.KindInvalidConfiguration, op, "fee %s is not enabled", fee.Hex())
	}
	rec.recipient = recipient
	m.records.Set(tx, key, rec)
	tx.Emit(m.address, events.RecipientSetForFund, controller, fee, recipient)
	return nil
}

// ReceiveCallFromController handles fee actions dispatched by a controller.
func (m *Manager) ReceiveCallFromController(tx *txn.Tx, f fund.Context, caller common.Address, actionID uint64, data []byte) error {
	switch actionID {
	case model.FeeActionInvokeContinuousHook:
		return m.Settle(tx, f, model.ContinuousArgs{}, BestEffort)
	case model.FeeActionPayoutSharesOutstanding:
		fees, err := settings.DecodeAddresses(data)
		if err != nil {
			return errs.Wrap(errs.KindInvalidConfiguration, "payout shares outstanding", err)
		}
		return m.PayoutSharesOutstanding(tx, f, fees)
	default:
		return errs.E(errs.KindInvalidConfiguration, "fee action", "unknown action %d", actionID)
	}
}

// PayoutSharesOutstanding pays the listed fees whose payout period allows it.
func (m *Manager) PayoutSharesOutstanding(tx *txn.Tx, f fund.Context, fees []common.Address) error {
	for _, addr := range fees {
		impl, ok := m.registry.Get(addr)
		if !ok {
			continue
		}
		of, ok := impl.(OutstandingFee)
		if !ok || !of.HoldsSharesOutstanding(f) {
			continue
		}
		if m.SharesOutstanding(f.Address(), addr).Sign() == 0 || !of.PayoutAllowed(tx, f) {
			continue
		}
		if err := m.payOutstanding(tx, f, addr); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) payOutstanding(tx *txn.Tx, f fund.Context, fee common.Address) error {
	key := recordKey{controller: f.Address(), fee: fee}
	rec, ok := m.records.Get(key)
	if !ok || rec.outstanding == nil || rec.outstanding.Sign() == 0 {
		return nil
	}
	payee := m.RecipientFor(f, fee)
	if err := f.TransferShares(tx, m.address, f.Vault().Address(), payee, rec.outstanding); err != nil {
		return err
	}
	tx.Emit(m.address, events.SharesOutstandingPaid, f.Address(), fee, payee, new(big.Int).Set(rec.outstanding))
	rec.outstanding = new(big.Int)
	m.records.Set(tx, key, rec)
	return nil
}

// Settle runs every enabled fee subscribed to args' hook, in registration order.
func (m *Manager) Settle(tx *txn.Tx, f fund.Context, args model.HookArgs, mode Mode) error {
	const op = "settle fees"
	controller := f.Address()
	if m.settling[controller] {
		return errs.E(errs.KindReentrancyBlocked, op, "fees already settling for %s", controller.Hex())
	}
	m.settling[controller] = true
	defer delete(m.settling, controller)

	hook := args.Hook()
	var gav *big.Int
	for _, addr := range m.EnabledFees(controller) {
		impl, ok := m.registry.Get(addr)
		if !ok {
			continue
		}
		settles, usesGav := impl.SettlesOnHook(hook)
		if !settles {
			continue
		}

		run := func() error {
			if usesGav && gav == nil {
				value, _, err := f.CalcGav(tx.Context(), false)
				if err != nil {
					return err
				}
				gav = value
			}
			return m.settleOne(tx, f, impl, hook, args, gav)
		}

		if mode == Mandatory {
			if err := run(); err != nil {
				return err
			}
			continue
		}
		if err := tx.Try(run); err != nil {
			m.logger.Warn("fee settlement failed",
				zap.String("controller", controller.Hex()),
				zap.String("fee", impl.Identifier()),
				zap.Stringer("hook", hook),
				zap.Error(err),
			)
			tx.Emit(m.address, events.FeeSettlementFailed, controller, addr, uint8(hook), err.Error())
		}
	}
	return nil
}

func (m *Manager) settleOne(tx *txn.Tx, f fund.Context, impl Fee, hook model.Hook, args model.HookArgs, gav *big.Int) error {
	s, err := impl.Settle(tx, f, hook, args, gav)
	if err != nil {
		return err
	}
	if s.Type == model.SettlementNone || s.Shares == nil || s.Shares.Sign() == 0 {
		return nil
	}

	addr := impl.Address()
	payee := m.RecipientFor(f, addr)
	switch s.Type {
	case model.SettlementDirect:
		if err := f.TransferShares(tx, m.address, s.Payer, payee, s.Shares); err != nil {
			return err
		}
	case model.SettlementMint:
		if of, ok := impl.(OutstandingFee); ok && of.HoldsSharesOutstanding(f) {
			payee = f.Vault().Address()
			key := recordKey{controller: f.Address(), fee: addr}
			rec, _ := m.records.Get(key)
			rec.outstanding = new(big.Int).Add(m.SharesOutstanding(f.Address(), addr), s.Shares)
			m.records.Set(tx, key, rec)
		}
		if err := f.MintShares(tx, m.address, payee, s.Shares); err != nil {
			return err
		}
	case model.SettlementBurn:
		payee = common.Address{}
		if err := f.BurnShares(tx, m.address, s.Payer, s.Shares); err != nil {
			return err
		}
	default:
		return errs.E(errs.KindInvalidConfiguration, "settle fee", "unknown settlement type %d", s.Type)
	}

	tx.Emit(m.address, events.Settled, f.Address(), addr, uint8(s.Type), s.Payer, payee, new(big.Int).Set(s.Shares))
	m.logger.Debug("fee settled",
		zap.String("fee", impl.Identifier()),
		zap.Stringer("hook", hook),
		zap.Stringer("type", s.Type),
		zap.String("shares", s.Shares.String()),
	)
	return nil
}
