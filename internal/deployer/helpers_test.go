package deployer

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fundCore/internal/addresslist"
	"fundCore/internal/controller"
	"fundCore/internal/token"
	"fundCore/internal/txn"
	"fundCore/internal/valueinterp"
)

var (
	dispatcherAddr = common.HexToAddress("0x0000000000000000000000000000000000005001")
	listsAddr      = common.HexToAddress("0x0000000000000000000000000000000000005002")
	govAddr        = common.HexToAddress("0x0000000000000000000000000000000000005003")
	managerAddr    = common.HexToAddress("0x0000000000000000000000000000000000005004")
	aliceAddr      = common.HexToAddress("0x0000000000000000000000000000000000005005")
	strangerAddr   = common.HexToAddress("0x0000000000000000000000000000000000005006")
	denomAddr      = common.HexToAddress("0x0000000000000000000000000000000000000c01")
)

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func mustEncode(data []byte, err error) []byte {
	if err != nil {
		panic(err)
	}
	return data
}

type env struct {
	t          *testing.T
	clock      *txn.ManualClock
	proc       *txn.Processor
	tokens     *token.Ledger
	values     *valueinterp.Static
	dispatcher *Dispatcher
	lists      *addresslist.Registry
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{t: t, clock: txn.NewManualClock(10_000)}
	e.proc = txn.NewProcessor(txn.Options{Clock: e.clock})
	e.tokens = token.NewLedger(nil)
	e.values = valueinterp.NewStatic(e.tokens)
	e.dispatcher = NewDispatcher(dispatcherAddr, govAddr, e.tokens, zap.NewNop())
	e.lists = addresslist.NewRegistry(listsAddr, e.dispatcher, nil)
	e.run(govAddr, "setup", func(tx *txn.Tx) error {
		if err := e.tokens.RegisterAsset(tx, denomAddr, "DEN", 18); err != nil {
			return err
		}
		if err := e.values.SetRate(tx, denomAddr, e18(1)); err != nil {
			return err
		}
		return e.tokens.Mint(tx, denomAddr, aliceAddr, e18(100))
	})
	return e
}

func (e *env) run(origin common.Address, label string, fn func(tx *txn.Tx) error) *txn.Receipt {
	e.t.Helper()
	receipt, err := e.proc.Execute(context.Background(), origin, label, fn)
	if err != nil {
		e.t.Fatalf("%s: %v", label, err)
	}
	return receipt
}

func (e *env) try(origin common.Address, label string, fn func(tx *txn.Tx) error) error {
	_, err := e.proc.Execute(context.Background(), origin, label, fn)
	return err
}

func (e *env) install(spec ReleaseSpec) *Release {
	e.t.Helper()
	var rel *Release
	e.run(govAddr, "install "+spec.Version, func(tx *txn.Tx) error {
		var err error
		rel, err = Install(tx, Environment{
			Dispatcher: e.dispatcher,
			Tokens:     e.tokens,
			Values:     e.values,
			Lists:      e.lists,
			Logger:     zap.NewNop(),
		}, govAddr, spec)
		return err
	})
	return rel
}

func (e *env) createFund(rel *Release, cfg controller.Config) *controller.Controller {
	e.t.Helper()
	var c *controller.Controller
	e.run(managerAddr, "create fund", func(tx *txn.Tx) error {
		var err error
		c, err = rel.Deployer.CreateNewFund(tx, managerAddr, FundParams{
			Owner:             managerAddr,
			Name:              "Test Fund",
			Symbol:            "TF",
			DenominationAsset: denomAddr,
			Config:            cfg,
		})
		return err
	})
	return c
}

func (e *env) buy(c *controller.Controller, who common.Address, amount *big.Int) *big.Int {
	e.t.Helper()
	var received *big.Int
	e.run(who, "buy", func(tx *txn.Tx) error {
		var err error
		received, err = c.BuyShares(tx, who, who, amount, nil)
		return err
	})
	return received
}
