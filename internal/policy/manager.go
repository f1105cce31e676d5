package policy

import (
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
	policy     common.Address
}

// Manager enables policies per pool and validates them on hooks.
type Manager struct {
	address common.Address
	owner   common.Address
	logger  *zap.Logger

	registry *txn.Map[common.Address, Policy]
	enabled  *txn.Map[common.Address, []common.Address]
	settings *txn.Map[recordKey, []byte]
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
		logger:   logger.With(zap.String("component", "policy_manager")),
		registry: txn.NewMap[common.Address, Policy](),
		enabled:  txn.NewMap[common.Address, []common.Address](),
		settings: txn.NewMap[recordKey, []byte](),
	}
}

func (m *Manager) Address() common.Address { return m.address }

// RegisterPolicy makes a policy available to pools of this release.
func (m *Manager) RegisterPolicy(tx *txn.Tx, caller common.Address, p Policy) error {
	const op = "register policy"
	if caller != m.owner {
		return errs.E(errs.KindUnauthorized, op, "%s is not the release owner", caller.Hex())
	}
	if _, ok := m.registry.Get(p.Address()); ok {
		return errs.E(errs.KindAlreadyInitialized, op, "policy %s", p.Address().Hex())
	}
	m.registry.Set(tx, p.Address(), p)
	return nil
}

func (m *Manager) Policy(address common.Address) (Policy, bool) {
	return m.registry.Get(address)
}

// EnabledPolicies returns a controller's policies in enable order.
func (m *Manager) EnabledPolicies(controller common.Address) []common.Address {
	list, _ := m.enabled.Get(controller)
	out := make([]common.Address, len(list))
	copy(out, list)
	return out
}

func (m *Manager) IsEnabled(controller, policy common.Address) bool {
	_, ok := m.settings.Get(recordKey{controller: controller, policy: policy})
	return ok
}

// PolicySettings returns the raw settings a policy was enabled or last updated with.
func (m *Manager) PolicySettings(controller, policy common.Address) ([]byte, bool) {
	data, ok := m.settings.Get(recordKey{controller: controller, policy: policy})
	return append([]byte(nil), data...), ok
}

// SetConfigForFund enables the initial policies of a new controller.
func (m *Manager) SetConfigForFund(tx *txn.Tx, f fund.Context, policies []common.Address, settingsData [][]byte) error {
	const op = "set policy config"
	if _, ok := m.enabled.Get(f.Address()); ok {
		return errs.E(errs.KindAlreadyInitialized, op, "policies already set for %s", f.Address().Hex())
	}
	if len(policies) != len(settingsData) {
		return errs.E(errs.KindInvalidConfiguration, op, "%d policies, %d settings", len(policies), len(settingsData))
	}
	m.enabled.Set(tx, f.Address(), nil)
	for i, addr := range policies {
		if err := m.enable(tx, f, addr, settingsData[i]); err != nil {
			return err
		}
	}
	return nil
}

// ActivateForFund has no per-pool work; policies validate from their settings alone.
func (m *Manager) ActivateForFund(*txn.Tx, fund.Context) error { return nil }

// DeactivateForFund forgets every policy record of the controller.
func (m *Manager) DeactivateForFund(tx *txn.Tx, f fund.Context) error {
	controller := f.Address()
	for _, addr := range m.EnabledPolicies(controller) {
		m.settings.Delete(tx, recordKey{controller: controller, policy: addr})
		if p, ok := m.registry.Get(addr); ok {
			p.DeactivateForFund(tx, f)
		}
	}
	m.enabled.Delete(tx, controller)
	return nil
}

// EnablePolicyForFund adds a policy to a live pool. Only the vault owner may call it.
func (m *Manager) EnablePolicyForFund(tx *txn.Tx, f fund.Context, caller, policy common.Address, data []byte) error {
	if err := m.onlyFundOwner("enable policy", f, caller); err != nil {
		return err
	}
	return m.enable(tx, f, policy, data)
}

func (m *Manager) enable(tx *txn.Tx, f fund.Context, addr common.Address, data []byte) error {
	const op = "enable policy"
	p, ok := m.registry.Get(addr)
	if !ok {
		return errs.E(errs.KindInvalidConfiguration, op, "policy %s is not registered", addr.Hex())
	}
	key := recordKey{controller: f.Address(), policy: addr}
	if _, ok := m.settings.Get(key); ok {
		return errs.E(errs.KindInvalidConfiguration, op, "policy %s already enabled", p.Identifier())
	}
	if err := p.AddFundSettings(tx, f, data); err != nil {
		return err
	}
	list, _ := m.enabled.Get(f.Address())
	next := make([]common.Address, len(list), len(list)+1)
	copy(next, list)
	m.enabled.Set(tx, f.Address(), append(next, addr))
	m.settings.Set(tx, key, append([]byte{}, data...))
	tx.Emit(m.address, events.PolicyEnabledForFund, f.Address(), addr, append([]byte{}, data...))
	m.logger.Debug("policy enabled", zap.String("controller", f.Address().Hex()), zap.String("policy", p.Identifier()))
	return nil
}

// DisablePolicyForFund removes a policy that allows being disabled.
func (m *Manager) DisablePolicyForFund(tx *txn.Tx, f fund.Context, caller, addr common.Address) error {
	const op = "disable policy"
	if err := m.onlyFundOwner(op, f, caller); err != nil {
		return err
	}
	p, key, err := m.enabledPolicy(op, f, addr)
	if err != nil {
		return err
	}
	if !p.CanDisable() {
		return errs.E(errs.KindInvalidConfiguration, op, "policy %s cannot be disabled", p.Identifier())
	}
	list, _ := m.enabled.Get(f.Address())
	next := make([]common.Address, 0, len(list))
	for _, a := range list {
		if a != addr {
			next = append(next, a)
		}
	}
	m.enabled.Set(tx, f.Address(), next)
	m.settings.Delete(tx, key)
	p.DeactivateForFund(tx, f)
	tx.Emit(m.address, events.PolicyDisabledForFund, f.Address(), addr)
	return nil
}

// UpdatePolicySettingsForFund replaces the settings of an enabled policy.
func (m *Manager) UpdatePolicySettingsForFund(tx *txn.Tx, f fund.Context, caller, addr common.Address, data []byte) error {
	const op = "update policy settings"
	if err := m.onlyFundOwner(op, f, caller); err != nil {
		return err
	}
	p, key, err := m.enabledPolicy(op, f, addr)
	if err != nil {
		return err
	}
	if err := p.UpdateFundSettings(tx, f, data); err != nil {
		return err
	}
	m.settings.Set(tx, key, append([]byte{}, data...))
	tx.Emit(m.address, events.PolicySettingsUpdated, f.Address(), addr, append([]byte{}, data...))
	return nil
}

// ValidatePolicies evaluates every enabled policy implementing args' hook, in enable order.
func (m *Manager) ValidatePolicies(tx *txn.Tx, f fund.Context, args model.HookArgs) error {
	const op = "validate policies"
	hook := args.Hook()
	for _, addr := range m.EnabledPolicies(f.Address()) {
		p, ok := m.registry.Get(addr)
		if !ok || !implements(p, hook) {
			continue
		}
		passed, err := p.ValidateRule(tx, f, args)
		if err != nil {
			return err
		}
		if !passed {
			m.logger.Debug("policy rule violated", zap.String("policy", p.Identifier()), zap.Stringer("hook", hook))
			return errs.E(errs.KindPolicyRuleViolated, op, "%s", p.Identifier())
		}
	}
	return nil
}

// ReceiveCallFromController handles owner policy actions dispatched by a controller.
func (m *Manager) ReceiveCallFromController(tx *txn.Tx, f fund.Context, caller common.Address, actionID uint64, data []byte) error {
	switch actionID {
	case model.PolicyActionEnablePolicy, model.PolicyActionUpdatePolicySettings:
		addr, payload, err := settings.DecodeAddressBytes(data)
		if err != nil {
			return errs.Wrap(errs.KindInvalidConfiguration, "policy action", err)
		}
		if actionID == model.PolicyActionEnablePolicy {
			return m.EnablePolicyForFund(tx, f, caller, addr, payload)
		}
		return m.UpdatePolicySettingsForFund(tx, f, caller, addr, payload)
	case model.PolicyActionDisablePolicy:
		addr, err := settings.DecodeAddress(data)
		if err != nil {
			return errs.Wrap(errs.KindInvalidConfiguration, "policy action", err)
		}
		return m.DisablePolicyForFund(tx, f, caller, addr)
	default:
		return errs.E(errs.KindInvalidConfiguration, "policy action", "unknown action %d", actionID)
	}
}

func (m *Manager) onlyFundOwner(op string, f fund.Context, caller common.Address) error {
	if caller != f.Vault().Owner() {
		return errs.E(errs.KindUnauthorized, op, "%s is not the vault owner", caller.Hex())
	}
	return nil
}

func (m *Manager) enabledPolicy(op string, f fund.Context, addr common.Address) (Policy, recordKey, error) {
	key := recordKey{controller: f.Address(), policy: addr}
	p, ok := m.registry.Get(addr)
	if _, enabled := m.settings.Get(key); !ok || !enabled {
		return nil, key, errs.E(errs.KindInvalidConfiguration, op, "policy %s is not enabled", addr.Hex())
	}
	return p, key, nil
}
