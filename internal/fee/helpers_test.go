package fee

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fundCore/internal/model"
	"fundCore/internal/token"
	"fundCore/internal/txn"
	"fundCore/internal/valueinterp"
	"fundCore/internal/vault"
)

var (
	controllerAddr = common.HexToAddress("0x0000000000000000000000000000000000000c01")
	vaultAddr      = common.HexToAddress("0x0000000000000000000000000000000000000c02")
	dispatcherAddr = common.HexToAddress("0x0000000000000000000000000000000000000c03")
	managerAddr    = common.HexToAddress("0x0000000000000000000000000000000000000c04")
	ownerAddr      = common.HexToAddress("0x0000000000000000000000000000000000000c05")
	buyerAddr      = common.HexToAddress("0x0000000000000000000000000000000000000c06")
	denomAddr      = common.HexToAddress("0x0000000000000000000000000000000000000c07")
)

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

// testFund is a minimal pool that forwards vault actions without permission checks.
type testFund struct {
	v        *vault.Vault
	tokens   *token.Ledger
	gav      *big.Int
	gavErr   error
	gavCalls int
}

func (f *testFund) Address() common.Address                   { return controllerAddr }
func (f *testFund) Vault() *vault.Vault                       { return f.v }
func (f *testFund) DenominationAsset() common.Address         { return denomAddr }
func (f *testFund) Tokens() *token.Ledger                     { return f.tokens }
func (f *testFund) ValueInterpreter() valueinterp.Interpreter { return nil }

func (f *testFund) CalcGav(context.Context, bool) (*big.Int, bool, error) {
	f.gavCalls++
	if f.gavErr != nil {
		return nil, false, f.gavErr
	}
	return new(big.Int).Set(f.gav), true, nil
}

func (f *testFund) ValidatePolicies(*txn.Tx, model.HookArgs) error { return nil }

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
	t     *testing.T
	clock *txn.ManualClock
	proc  *txn.Processor
	fund  *testFund
	mgr   *Manager
}

func newEnv(t *testing.T, fees []Fee, settingsData [][]byte) *env {
	t.Helper()
	e := &env{t: t, clock: txn.NewManualClock(1_000)}
	e.proc = txn.NewProcessor(txn.Options{Clock: e.clock})
	e.fund = &testFund{tokens: token.NewLedger(nil), gav: new(big.Int)}
	e.mgr = NewManager(managerAddr, ownerAddr, zap.NewNop())

	e.run("setup", func(tx *txn.Tx) error {
		if err := e.fund.tokens.RegisterAsset(tx, denomAddr, "DEN", 18); err != nil {
			return err
		}
		v, err := vault.New(tx, vault.Params{Address: vaultAddr, Dispatcher: dispatcherAddr, Owner: ownerAddr}, e.fund.tokens, nil)
		if err != nil {
			return err
		}
		e.fund.v = v
		if err := v.SetAccessor(tx, dispatcherAddr, e.fund); err != nil {
			return err
		}
		addrs := make([]common.Address, 0, len(fees))
		for _, f := range fees {
			if err := e.mgr.RegisterFee(tx, ownerAddr, f); err != nil {
				return err
			}
			addrs = append(addrs, f.Address())
		}
		if err := e.mgr.SetConfigForFund(tx, e.fund, addrs, settingsData); err != nil {
			return err
		}
		return e.mgr.ActivateForFund(tx, e.fund)
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

func (e *env) mint(to common.Address, amount *big.Int) {
	e.t.Helper()
	e.run("mint", func(tx *txn.Tx) error {
		return e.fund.v.MintShares(tx, controllerAddr, to, amount)
	})
}
