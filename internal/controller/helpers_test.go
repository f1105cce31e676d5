package controller

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fundCore/internal/extposition"
	"fundCore/internal/fee"
	"fundCore/internal/integration"
	"fundCore/internal/policy"
	"fundCore/internal/token"
	"fundCore/internal/txn"
	"fundCore/internal/valueinterp"
	"fundCore/internal/vault"
)

var (
	controllerAddr  = common.HexToAddress("0x0000000000000000000000000000000000002001")
	vaultAddr       = common.HexToAddress("0x0000000000000000000000000000000000002002")
	dispatcherAddr  = common.HexToAddress("0x0000000000000000000000000000000000002003")
	deployerAddr    = common.HexToAddress("0x0000000000000000000000000000000000002004")
	ownerAddr       = common.HexToAddress("0x0000000000000000000000000000000000002005")
	aliceAddr       = common.HexToAddress("0x0000000000000000000000000000000000002006")
	bobAddr         = common.HexToAddress("0x0000000000000000000000000000000000002007")
	feeManagerAddr  = common.HexToAddress("0x0000000000000000000000000000000000003001")
	policyMgrAddr   = common.HexToAddress("0x0000000000000000000000000000000000003002")
	integrationAddr = common.HexToAddress("0x0000000000000000000000000000000000003003")
	positionsAddr   = common.HexToAddress("0x0000000000000000000000000000000000003004")
	entranceAddr    = common.HexToAddress("0x0000000000000000000000000000000000004001")
	performanceAddr = common.HexToAddress("0x0000000000000000000000000000000000004002")
	minMaxAddr      = common.HexToAddress("0x0000000000000000000000000000000000004003")
	denomAddr       = common.HexToAddress("0x0000000000000000000000000000000000000b01")
	wethAddr        = common.HexToAddress("0x0000000000000000000000000000000000000b02")
)

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

type env struct {
	t      *testing.T
	clock  *txn.ManualClock
	proc   *txn.Processor
	tokens *token.Ledger
	values *valueinterp.Static
	ext    Extensions
	c      *Controller
	v      *vault.Vault
}

type envOptions struct {
	timelock uint64
	config   Config
}

func newEnv(t *testing.T, opts envOptions) *env {
	t.Helper()
	e := &env{t: t, clock: txn.NewManualClock(1_000)}
	e.proc = txn.NewProcessor(txn.Options{Clock: e.clock})
	e.tokens = token.NewLedger(nil)
	e.values = valueinterp.NewStatic(e.tokens)
	e.ext = Extensions{
		Fees:         fee.NewManager(feeManagerAddr, ownerAddr, zap.NewNop()),
		Policies:     policy.NewManager(policyMgrAddr, ownerAddr, zap.NewNop()),
		Integrations: integration.NewManager(integrationAddr, ownerAddr, e.tokens, zap.NewNop()),
		Positions:    extposition.NewManager(positionsAddr, ownerAddr, e.tokens, zap.NewNop()),
	}

	e.run("setup", func(tx *txn.Tx) error {
		if err := e.tokens.RegisterAsset(tx, denomAddr, "DEN", 18); err != nil {
			return err
		}
		if err := e.tokens.RegisterAsset(tx, wethAddr, "WETH", 18); err != nil {
			return err
		}
		if err := e.values.SetRate(tx, denomAddr, e18(1)); err != nil {
			return err
		}
		if err := e.values.SetRate(tx, wethAddr, e18(2)); err != nil {
			return err
		}
		if err := e.ext.Fees.RegisterFee(tx, ownerAddr, fee.NewEntranceRateDirect(entranceAddr)); err != nil {
			return err
		}
		if err := e.ext.Fees.RegisterFee(tx, ownerAddr, fee.NewPerformance(performanceAddr)); err != nil {
			return err
		}
		if err := e.ext.Policies.RegisterPolicy(tx, ownerAddr, policy.NewMinMaxInvestment(minMaxAddr)); err != nil {
			return err
		}
		for _, who := range []common.Address{aliceAddr, bobAddr} {
			if err := e.tokens.Mint(tx, denomAddr, who, e18(100)); err != nil {
				return err
			}
		}

		c, err := New(Params{
			Address:              controllerAddr,
			Deployer:             deployerAddr,
			DenominationAsset:    denomAddr,
			SharesActionTimelock: opts.timelock,
		}, e.tokens, e.values, e.ext, zap.NewNop())
		if err != nil {
			return err
		}
		v, err := vault.New(tx, vault.Params{Address: vaultAddr, Dispatcher: dispatcherAddr, Owner: ownerAddr}, e.tokens, nil)
		if err != nil {
			return err
		}
		e.c, e.v = c, v
		if err := c.SetVault(tx, deployerAddr, v); err != nil {
			return err
		}
		if err := c.ConfigureExtensions(tx, deployerAddr, opts.config); err != nil {
			return err
		}
		if err := v.SetAccessor(tx, dispatcherAddr, c); err != nil {
			return err
		}
		return c.Activate(tx, deployerAddr, false)
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

func (e *env) try(label string, fn func(tx *txn.Tx) error) error {
	_, err := e.proc.Execute(context.Background(), ownerAddr, label, fn)
	return err
}

func (e *env) buy(who common.Address, amount *big.Int) *big.Int {
	e.t.Helper()
	var received *big.Int
	e.run("buy", func(tx *txn.Tx) error {
		var err error
		received, err = e.c.BuyShares(tx, who, who, amount, nil)
		return err
	})
	return received
}

func (e *env) checkSupply() {
	e.t.Helper()
	sum := new(big.Int)
	for _, holder := range e.v.Holders() {
		sum.Add(sum, e.v.BalanceOf(holder))
	}
	if sum.Cmp(e.v.TotalSupply()) != 0 {
		e.t.Fatalf("share balances sum to %s, supply is %s", sum, e.v.TotalSupply())
	}
}
