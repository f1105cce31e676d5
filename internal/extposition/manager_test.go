package extposition

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fundCore/internal/errs"
	"fundCore/internal/events"
	"fundCore/internal/model"
	"fundCore/internal/settings"
	"fundCore/internal/token"
	"fundCore/internal/txn"
	"fundCore/internal/valueinterp"
	"fundCore/internal/vault"
)

var (
	controllerAddr = common.HexToAddress("0x0000000000000000000000000000000000001001")
	vaultAddr      = common.HexToAddress("0x0000000000000000000000000000000000001002")
	dispatcherAddr = common.HexToAddress("0x0000000000000000000000000000000000001003")
	managerAddr    = common.HexToAddress("0x0000000000000000000000000000000000001004")
	ownerAddr      = common.HexToAddress("0x0000000000000000000000000000000000001005")
	usdcAddr       = common.HexToAddress("0x0000000000000000000000000000000000000a01")
)

type testFund struct {
	v      *vault.Vault
	tokens *token.Ledger
	vi     *valueinterp.Static
	hooks  []model.Hook
}

func (f *testFund) Address() common.Address                   { return controllerAddr }
func (f *testFund) Vault() *vault.Vault                       { return f.v }
func (f *testFund) DenominationAsset() common.Address         { return usdcAddr }
func (f *testFund) Tokens() *token.Ledger                     { return f.tokens }
func (f *testFund) ValueInterpreter() valueinterp.Interpreter { return f.vi }

func (f *testFund) CalcGav(context.Context, bool) (*big.Int, bool, error) {
	return new(big.Int), true, nil
}

func (f *testFund) ValidatePolicies(_ *txn.Tx, args model.HookArgs) error {
	f.hooks = append(f.hooks, args.Hook())
	return nil
}

func (f *testFund) PreTransferSharesHook(*txn.Tx, common.Address, common.Address, *big.Int) error {
	return nil
}

func (f *testFund) MintShares(tx *txn.Tx, _, to common.Address, amount *big.Int) error {
	return f.v.MintShares(tx, controllerAddr, to, amount)
}

func (f *testFund) BurnShares(tx *txn.Tx, _, from common.Address, amount *big.Int) error {
	return f.v.BurnShares(tx, controllerAddr, from, amount)
}

func (f *testFund) TransferShares(tx *txn.Tx, _, from, to common.Address, amount *big.Int) error {
	return f.v.TransferShares(tx, controllerAddr, from, to, amount)
}

func (f *testFund) WithdrawAssetTo(tx *txn.Tx, _, asset, to common.Address, amount *big.Int) error {
	return f.v.WithdrawAssetTo(tx, controllerAddr, asset, to, amount)
}

func (f *testFund) AddTrackedAsset(tx *txn.Tx, _, asset common.Address) error {
	return f.v.AddTrackedAsset(tx, controllerAddr, asset)
}

func (f *testFund) RemoveTrackedAsset(tx *txn.Tx, _, asset common.Address) error {
	return f.v.RemoveTrackedAsset(tx, controllerAddr, asset)
}

func (f *testFund) AddExternalPosition(tx *txn.Tx, _, position common.Address) error {
	return f.v.AddExternalPosition(tx, controllerAddr, position)
}

func (f *testFund) RemoveExternalPosition(tx *txn.Tx, _, position common.Address) error {
	return f.v.RemoveExternalPosition(tx, controllerAddr, position)
}

type env struct {
	t      *testing.T
	proc   *txn.Processor
	fund   *testFund
	mgr    *Manager
	locker uint64
}

func newEnv(t *testing.T) *env {
	t.Helper()
	tokens := token.NewLedger(nil)
	e := &env{
		t:    t,
		proc: txn.NewProcessor(txn.Options{Clock: txn.NewManualClock(1_000)}),
		fund: &testFund{tokens: tokens, vi: valueinterp.NewStatic(tokens)},
		mgr:  NewManager(managerAddr, ownerAddr, tokens, zap.NewNop()),
	}
	e.run("setup", func(tx *txn.Tx) error {
		if err := tokens.RegisterAsset(tx, usdcAddr, "USDC", 6); err != nil {
			return err
		}
		if err := e.fund.vi.SetRate(tx, usdcAddr, big.NewInt(1)); err != nil {
			return err
		}
		v, err := vault.New(tx, vault.Params{Address: vaultAddr, Dispatcher: dispatcherAddr, Owner: ownerAddr}, tokens, nil)
		if err != nil {
			return err
		}
		e.fund.v = v
		if err := v.SetAccessor(tx, dispatcherAddr, e.fund); err != nil {
			return err
		}
		if err := v.AddTrackedAsset(tx, controllerAddr, usdcAddr); err != nil {
			return err
		}
		if err := tokens.Mint(tx, usdcAddr, vaultAddr, big.NewInt(1_000)); err != nil {
			return err
		}
		e.locker, err = e.mgr.AddType(tx, ownerAddr, "LOCKER", LockerParser{}, NewLockerFactory(tokens))
		return err
	})
	return e
}

func (e *env) run(label string, fn func(tx *txn.Tx) error) *txn.Receipt {
	e.t.Helper()
	receipt, err := e.proc.Execute(context.Background(), ownerAddr, label, fn)
	if err != nil {
		e.t.Fatalf("%s: %v", label, err)
	}
	return receipt
}

func (e *env) action(actionID uint64, data []byte) (*txn.Receipt, error) {
	return e.proc.Execute(context.Background(), ownerAddr, "action", func(tx *txn.Tx) error {
		return e.mgr.ReceiveCallFromController(tx, e.fund, ownerAddr, actionID, data)
	})
}

func (e *env) lockerCall(actionID uint64, amount int64) []byte {
	e.t.Helper()
	args, err := settings.EncodeAssetAmounts([]common.Address{usdcAddr}, []*big.Int{big.NewInt(amount)})
	if err != nil {
		e.t.Fatalf("encode args: %v", err)
	}
	call, err := settings.EncodeUint256Bytes(new(big.Int).SetUint64(actionID), args)
	if err != nil {
		e.t.Fatalf("encode call: %v", err)
	}
	return call
}

func (e *env) create(callArgs []byte) common.Address {
	e.t.Helper()
	data, err := settings.EncodePositionCreate(settings.PositionCreate{TypeID: new(big.Int).SetUint64(e.locker), CallArgs: callArgs})
	if err != nil {
		e.t.Fatalf("encode create: %v", err)
	}
	receipt, err := e.action(model.PositionActionCreate, data)
	if err != nil {
		e.t.Fatalf("create: %v", err)
	}
	positions := e.fund.v.ActiveExternalPositions()
	if len(positions) != 1 || len(receipt.Find(events.ExternalPositionDeployed)) != 1 {
		e.t.Fatalf("expected one deployed position, got %v", positions)
	}
	return positions[0]
}

func (e *env) positionCall(position common.Address, call []byte) error {
	e.t.Helper()
	data, err := settings.EncodeAddressBytes(position, call)
	if err != nil {
		e.t.Fatalf("encode: %v", err)
	}
	_, err = e.action(model.PositionActionCall, data)
	return err
}

func addressPayload(t *testing.T, addr common.Address) []byte {
	t.Helper()
	data, err := settings.EncodeAddress(addr)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return data
}

func TestCreateWithInitialCall(t *testing.T) {
	e := newEnv(t)
	pos := e.create(e.lockerCall(LockerActionLock, 400))

	if got := e.fund.v.AssetBalance(usdcAddr); got.Cmp(big.NewInt(600)) != 0 {
		t.Fatalf("vault usdc: got %s want 600", got)
	}
	p, ok := e.mgr.Position(pos)
	if !ok {
		t.Fatalf("position not registered")
	}
	_, managed, _ := p.ManagedAssets()
	if len(managed) != 1 || managed[0].Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("managed: %v", managed)
	}
	want := []model.Hook{model.HookCreateExternalPosition, model.HookCallOnExternalPosition}
	if len(e.fund.hooks) != 2 || e.fund.hooks[0] != want[0] || e.fund.hooks[1] != want[1] {
		t.Fatalf("hooks: got %v want %v", e.fund.hooks, want)
	}
}

func TestUnknownTypeFails(t *testing.T) {
	e := newEnv(t)
	data, _ := settings.EncodePositionCreate(settings.PositionCreate{TypeID: big.NewInt(7)})
	if _, err := e.action(model.PositionActionCreate, data); !errors.Is(err, errs.ErrUnsupportedPositionType) {
		t.Fatalf("expected UnsupportedPositionType, got %v", err)
	}
}

func TestRemoveRequiresReconciledPosition(t *testing.T) {
	e := newEnv(t)
	pos := e.create(e.lockerCall(LockerActionLock, 400))

	if _, err := e.action(model.PositionActionRemove, addressPayload(t, pos)); !errors.Is(err, errs.ErrPositionNotReconciled) {
		t.Fatalf("expected PositionNotReconciled, got %v", err)
	}

	if err := e.positionCall(pos, e.lockerCall(LockerActionUnlock, 400)); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if got := e.fund.v.AssetBalance(usdcAddr); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("vault usdc after unlock: got %s", got)
	}

	if _, err := e.action(model.PositionActionRemove, addressPayload(t, pos)); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if e.fund.v.IsActiveExternalPosition(pos) {
		t.Fatalf("position should be inactive")
	}
	if err := e.positionCall(pos, e.lockerCall(LockerActionLock, 1)); !errors.Is(err, errs.ErrInvalidConfiguration) {
		t.Fatalf("calls on removed positions must fail, got %v", err)
	}

	if _, err := e.action(model.PositionActionReactivate, addressPayload(t, pos)); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if !e.fund.v.IsActiveExternalPosition(pos) {
		t.Fatalf("position should be active again")
	}
}

func TestFailedCallLeavesCustodyUntouched(t *testing.T) {
	e := newEnv(t)
	pos := e.create(nil)
	if err := e.positionCall(pos, e.lockerCall(LockerActionLock, 5_000)); !errors.Is(err, errs.ErrInsufficientBalance) {
		t.Fatalf("expected InsufficientBalance, got %v", err)
	}
	if got := e.fund.v.AssetBalance(usdcAddr); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("vault usdc: got %s", got)
	}
}
