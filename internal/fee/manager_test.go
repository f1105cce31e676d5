package fee

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"fundCore/internal/errs"
	"fundCore/internal/events"
	"fundCore/internal/fund"
	"fundCore/internal/model"
	"fundCore/internal/settings"
	"fundCore/internal/txn"
)

var (
	entranceAddr    = common.HexToAddress("0x0000000000000000000000000000000000000f01")
	exitAddr        = common.HexToAddress("0x0000000000000000000000000000000000000f02")
	managementAddr  = common.HexToAddress("0x0000000000000000000000000000000000000f03")
	performanceAddr = common.HexToAddress("0x0000000000000000000000000000000000000f04")
	failingAddr     = common.HexToAddress("0x0000000000000000000000000000000000000f05")
)

func mustUint(t *testing.T, v int64) []byte {
	t.Helper()
	out, err := settings.EncodeUint256(big.NewInt(v))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return out
}

func mustPair(t *testing.T, a, b int64) []byte {
	t.Helper()
	out, err := settings.EncodeUint256Pair(big.NewInt(a), big.NewInt(b))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return out
}

func TestEntranceRateDirectScenario(t *testing.T) {
	e := newEnv(t, []Fee{NewEntranceRateDirect(entranceAddr)}, [][]byte{mustUint(t, 1000)})
	e.mint(buyerAddr, e18(2))

	receipt := e.run("post buy", func(tx *txn.Tx) error {
		return e.mgr.Settle(tx, e.fund, model.PostBuySharesArgs{
			Buyer:        buyerAddr,
			SharesIssued: e18(2),
		}, Mandatory)
	})

	v := e.fund.v
	wantFee := new(big.Int).Div(e18(2), big.NewInt(10))
	if v.BalanceOf(buyerAddr).Cmp(new(big.Int).Sub(e18(2), wantFee)) != 0 {
		t.Fatalf("buyer balance %s", v.BalanceOf(buyerAddr))
	}
	if v.BalanceOf(ownerAddr).Cmp(wantFee) != 0 {
		t.Fatalf("recipient balance %s", v.BalanceOf(ownerAddr))
	}
	settled := receipt.Find(events.Settled)
	if len(settled) != 1 {
		t.Fatalf("expected one Settled event, got %d", len(settled))
	}
	decoded, err := events.Decode(settled[0])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["settlementType"].(uint8) != uint8(model.SettlementDirect) || decoded["sharesDue"].(*big.Int).Cmp(wantFee) != 0 {
		t.Fatalf("unexpected settlement: %v", decoded)
	}
}

func TestEntranceRateBurnReducesSupply(t *testing.T) {
	e := newEnv(t, []Fee{NewEntranceRateBurn(entranceAddr)}, [][]byte{mustUint(t, 500)})
	e.mint(buyerAddr, e18(1))
	e.run("post buy", func(tx *txn.Tx) error {
		return e.mgr.Settle(tx, e.fund, model.PostBuySharesArgs{Buyer: buyerAddr, SharesIssued: e18(1)}, Mandatory)
	})
	want := new(big.Int).Sub(e18(1), new(big.Int).Div(e18(1), big.NewInt(20)))
	if e.fund.v.TotalSupply().Cmp(want) != 0 {
		t.Fatalf("expected supply %s, got %s", want, e.fund.v.TotalSupply())
	}
}

func TestExitRateUsesRedemptionKind(t *testing.T) {
	e := newEnv(t, []Fee{NewExitRateDirect(exitAddr)}, [][]byte{mustPair(t, 100, 300)})
	e.mint(buyerAddr, e18(1))
	e.run("redeem specific", func(tx *txn.Tx) error {
		return e.mgr.Settle(tx, e.fund, model.PreRedeemSharesArgs{
			Redeemer:          buyerAddr,
			SharesToRedeem:    e18(1),
			ForSpecificAssets: true,
		}, Mandatory)
	})
	want := new(big.Int).Div(new(big.Int).Mul(e18(1), big.NewInt(3)), big.NewInt(100))
	if e.fund.v.BalanceOf(ownerAddr).Cmp(want) != 0 {
		t.Fatalf("expected %s, got %s", want, e.fund.v.BalanceOf(ownerAddr))
	}
}

func TestManagementFeeIsIdempotentAtSameTimestamp(t *testing.T) {
	e := newEnv(t, []Fee{NewManagement(managementAddr)}, [][]byte{mustUint(t, 1000)})
	e.mint(buyerAddr, e18(1))

	e.clock.Advance(SecondsPerYear)
	e.run("settle twice", func(tx *txn.Tx) error {
		if err := e.mgr.Settle(tx, e.fund, model.ContinuousArgs{}, BestEffort); err != nil {
			return err
		}
		return e.mgr.Settle(tx, e.fund, model.ContinuousArgs{}, BestEffort)
	})
	want := new(big.Int).Div(e18(1), big.NewInt(10))
	if got := e.fund.v.BalanceOf(ownerAddr); got.Cmp(want) != 0 {
		t.Fatalf("expected %s minted once, got %s", want, got)
	}

	e.run("same timestamp", func(tx *txn.Tx) error {
		return e.mgr.Settle(tx, e.fund, model.ContinuousArgs{}, BestEffort)
	})
	if got := e.fund.v.BalanceOf(ownerAddr); got.Cmp(want) != 0 {
		t.Fatalf("zero elapsed time must accrue nothing, got %s", got)
	}
}

func TestPerformanceFeeCrystallizesAboveHighWaterMark(t *testing.T) {
	e := newEnv(t, []Fee{NewPerformance(performanceAddr)}, [][]byte{mustPair(t, 2000, 0)})
	perf, _ := e.mgr.Fee(performanceAddr)
	e.mint(buyerAddr, e18(1))

	e.fund.gav = e18(1)
	e.run("baseline", func(tx *txn.Tx) error {
		return e.mgr.Settle(tx, e.fund, model.ContinuousArgs{}, Mandatory)
	})
	if hwm := perf.(*Performance).HighWaterMark(controllerAddr); hwm.Cmp(e18(1)) != 0 {
		t.Fatalf("expected initial hwm 1e18, got %s", hwm)
	}

	e.fund.gav = e18(2)
	e.run("gain", func(tx *txn.Tx) error {
		return e.mgr.Settle(tx, e.fund, model.ContinuousArgs{}, Mandatory)
	})
	wantShares, _ := new(big.Int).SetString("111111111111111111", 10)
	if got := e.fund.v.BalanceOf(ownerAddr); got.Cmp(wantShares) != 0 {
		t.Fatalf("expected %s shares due, got %s", wantShares, got)
	}
	wantHwm, _ := new(big.Int).SetString("1800000000000000000", 10)
	if hwm := perf.(*Performance).HighWaterMark(controllerAddr); hwm.Cmp(wantHwm) != 0 {
		t.Fatalf("expected hwm %s, got %s", wantHwm, hwm)
	}

	e.run("no new gain", func(tx *txn.Tx) error {
		return e.mgr.Settle(tx, e.fund, model.ContinuousArgs{}, Mandatory)
	})
	if got := e.fund.v.BalanceOf(ownerAddr); got.Cmp(wantShares) != 0 {
		t.Fatalf("price at hwm must not charge again, got %s", got)
	}
}

func TestPerformanceFeeChargesGainBeforeFirstSettlement(t *testing.T) {
	e := newEnv(t, []Fee{NewPerformance(performanceAddr)}, [][]byte{mustPair(t, 1000, 0)})
	perf, _ := e.mgr.Fee(performanceAddr)
	if hwm := perf.(*Performance).HighWaterMark(controllerAddr); hwm.Cmp(e18(1)) != 0 {
		t.Fatalf("an empty pool starts at one denomination unit, got %s", hwm)
	}

	e.mint(buyerAddr, e18(10))
	e.fund.gav = e18(20)
	e.run("continuous", func(tx *txn.Tx) error {
		return e.mgr.Settle(tx, e.fund, model.ContinuousArgs{}, Mandatory)
	})
	want, _ := new(big.Int).SetString("526315789473684210", 10)
	if got := e.fund.v.BalanceOf(ownerAddr); got.Cmp(want) != 0 {
		t.Fatalf("expected %s shares due on the first gain, got %s", want, got)
	}
}

func TestPerformanceFeeRepricesAfterSupplyReturnsToZero(t *testing.T) {
	e := newEnv(t, []Fee{NewPerformance(performanceAddr)}, [][]byte{mustPair(t, 1000, 0)})
	perf := mustFee(t, e, performanceAddr).(*Performance)
	settle := func(label string) {
		e.run(label, func(tx *txn.Tx) error {
			return e.mgr.Settle(tx, e.fund, model.ContinuousArgs{}, Mandatory)
		})
	}

	e.mint(buyerAddr, e18(1))
	e.fund.gav = e18(1)
	settle("issued")
	e.run("redeem all", func(tx *txn.Tx) error {
		return e.fund.v.BurnShares(tx, controllerAddr, buyerAddr, e18(1))
	})
	e.fund.gav = new(big.Int)
	settle("empty")
	if hwm := perf.HighWaterMark(controllerAddr); hwm.Sign() != 0 {
		t.Fatalf("mark must clear once supply returns to zero, got %s", hwm)
	}

	e.mint(buyerAddr, e18(1))
	e.fund.gav = e18(3)
	settle("reissued")
	if got := e.fund.v.BalanceOf(ownerAddr); got.Sign() != 0 {
		t.Fatalf("repriced pool must not charge, owner has %s", got)
	}
	if hwm := perf.HighWaterMark(controllerAddr); hwm.Cmp(e18(3)) != 0 {
		t.Fatalf("expected mark at current price 3e18, got %s", hwm)
	}
}

func TestDeactivateDropsFeeState(t *testing.T) {
	e := newEnv(t,
		[]Fee{NewEntranceRateDirect(entranceAddr), NewManagement(managementAddr), NewPerformance(performanceAddr)},
		[][]byte{mustUint(t, 100), mustUint(t, 1000), mustPair(t, 1000, 0)},
	)
	entrance := mustFee(t, e, entranceAddr).(*EntranceRate)
	management := mustFee(t, e, managementAddr).(*Management)
	perf := mustFee(t, e, performanceAddr).(*Performance)
	if entrance.Rate(controllerAddr).Sign() == 0 || management.LastSettled(controllerAddr) == 0 {
		t.Fatalf("fees should hold state before deactivation")
	}

	e.run("deactivate", func(tx *txn.Tx) error {
		return e.mgr.DeactivateForFund(tx, e.fund)
	})
	if len(e.mgr.EnabledFees(controllerAddr)) != 0 {
		t.Fatalf("manager must forget the pool")
	}
	if entrance.Rate(controllerAddr).Sign() != 0 {
		t.Fatalf("entrance rate kept after deactivation")
	}
	if management.LastSettled(controllerAddr) != 0 {
		t.Fatalf("management state kept after deactivation")
	}
	if perf.HighWaterMark(controllerAddr).Sign() != 0 {
		t.Fatalf("performance state kept after deactivation")
	}
}

func mustFee(t *testing.T, e *env, addr common.Address) Fee {
	t.Helper()
	f, ok := e.mgr.Fee(addr)
	if !ok {
		t.Fatalf("fee %s not registered", addr.Hex())
	}
	return f
}

func TestPerformanceFeeHoldsSharesOutstandingUntilPayout(t *testing.T) {
	const period = 3600
	e := newEnv(t, []Fee{NewPerformance(performanceAddr)}, [][]byte{mustPair(t, 2000, period)})
	e.mint(buyerAddr, e18(1))
	e.fund.gav = e18(1)
	e.run("baseline", func(tx *txn.Tx) error {
		return e.mgr.Settle(tx, e.fund, model.ContinuousArgs{}, Mandatory)
	})
	e.fund.gav = e18(2)
	e.run("gain", func(tx *txn.Tx) error {
		return e.mgr.Settle(tx, e.fund, model.ContinuousArgs{}, Mandatory)
	})

	outstanding := e.mgr.SharesOutstanding(controllerAddr, performanceAddr)
	if outstanding.Sign() == 0 || e.fund.v.BalanceOf(vaultAddr).Cmp(outstanding) != 0 {
		t.Fatalf("shares outstanding %s must be held by the vault (%s)", outstanding, e.fund.v.BalanceOf(vaultAddr))
	}

	payload, err := settings.EncodeAddresses([]common.Address{performanceAddr})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	e.run("early payout", func(tx *txn.Tx) error {
		return e.mgr.ReceiveCallFromController(tx, e.fund, buyerAddr, model.FeeActionPayoutSharesOutstanding, payload)
	})
	if e.fund.v.BalanceOf(ownerAddr).Sign() != 0 {
		t.Fatalf("payout before the period must be a no-op")
	}

	e.clock.Advance(period)
	receipt := e.run("payout", func(tx *txn.Tx) error {
		return e.mgr.ReceiveCallFromController(tx, e.fund, buyerAddr, model.FeeActionPayoutSharesOutstanding, payload)
	})
	if e.fund.v.BalanceOf(ownerAddr).Cmp(outstanding) != 0 || len(receipt.Find(events.SharesOutstandingPaid)) != 1 {
		t.Fatalf("expected %s paid to owner, got %s", outstanding, e.fund.v.BalanceOf(ownerAddr))
	}
	if e.mgr.SharesOutstanding(controllerAddr, performanceAddr).Sign() != 0 {
		t.Fatalf("outstanding must be cleared")
	}
}

// failingFee always errors after minting, so its partial effects must be reverted.
type failingFee struct{}

func (failingFee) Address() common.Address                             { return failingAddr }
func (failingFee) Identifier() string                                  { return "FAILING" }
func (failingFee) AddFundSettings(*txn.Tx, fund.Context, []byte) error { return nil }
func (failingFee) ActivateForFund(*txn.Tx, fund.Context) error         { return nil }
func (failingFee) DeactivateForFund(*txn.Tx, fund.Context)             {}
func (failingFee) SettlesOnHook(model.Hook) (bool, bool)               { return true, false }
func (failingFee) Settle(tx *txn.Tx, f fund.Context, _ model.Hook, _ model.HookArgs, _ *big.Int) (Settlement, error) {
	if err := f.MintShares(tx, managerAddr, buyerAddr, e18(100)); err != nil {
		return Settlement{}, err
	}
	return Settlement{}, errors.New("fee exploded")
}

func TestBestEffortRevertsOnlyFailingFee(t *testing.T) {
	e := newEnv(t, []Fee{failingFee{}, NewManagement(managementAddr)}, [][]byte{nil, mustUint(t, 1000)})
	e.mint(buyerAddr, e18(1))
	e.clock.Advance(SecondsPerYear)

	receipt := e.run("continuous", func(tx *txn.Tx) error {
		return e.mgr.Settle(tx, e.fund, model.ContinuousArgs{}, BestEffort)
	})
	if e.fund.v.BalanceOf(buyerAddr).Cmp(e18(1)) != 0 {
		t.Fatalf("failing fee effects must be reverted, buyer has %s", e.fund.v.BalanceOf(buyerAddr))
	}
	if e.fund.v.BalanceOf(ownerAddr).Sign() == 0 {
		t.Fatalf("management fee must still settle")
	}
	if len(receipt.Find(events.FeeSettlementFailed)) != 1 {
		t.Fatalf("expected FeeSettlementFailed event")
	}

	_, err := e.proc.Execute(context.Background(), ownerAddr, "mandatory", func(tx *txn.Tx) error {
		return e.mgr.Settle(tx, e.fund, model.ContinuousArgs{}, Mandatory)
	})
	if err == nil {
		t.Fatalf("mandatory mode must abort on fee failure")
	}
}

func TestGavComputedOncePerInvocation(t *testing.T) {
	second := common.HexToAddress("0x0000000000000000000000000000000000000f06")
	e := newEnv(t,
		[]Fee{NewPerformance(performanceAddr), NewPerformance(second)},
		[][]byte{mustPair(t, 1000, 0), mustPair(t, 1000, 0)},
	)
	e.mint(buyerAddr, e18(1))
	e.fund.gav = e18(1)
	e.fund.gavCalls = 0
	e.run("continuous", func(tx *txn.Tx) error {
		return e.mgr.Settle(tx, e.fund, model.ContinuousArgs{}, Mandatory)
	})
	if e.fund.gavCalls != 1 {
		t.Fatalf("expected one gav computation, got %d", e.fund.gavCalls)
	}
}

func TestSetConfigRejectsBadInput(t *testing.T) {
	e := newEnv(t, nil, nil)
	_, err := e.proc.Execute(context.Background(), ownerAddr, "again", func(tx *txn.Tx) error {
		return e.mgr.SetConfigForFund(tx, e.fund, nil, nil)
	})
	if !errors.Is(err, errs.ErrAlreadyInitialized) {
		t.Fatalf("expected already initialized, got %v", err)
	}

	fresh := NewManager(managerAddr, ownerAddr, nil)
	entrance := NewEntranceRateDirect(entranceAddr)
	_, err = e.proc.Execute(context.Background(), ownerAddr, "bad rate", func(tx *txn.Tx) error {
		if err := fresh.RegisterFee(tx, ownerAddr, entrance); err != nil {
			return err
		}
		return fresh.SetConfigForFund(tx, e.fund, []common.Address{entranceAddr}, [][]byte{mustUint(t, 20_000)})
	})
	if !errors.Is(err, errs.ErrInvalidConfiguration) {
		t.Fatalf("expected invalid configuration, got %v", err)
	}
	if _, ok := fresh.Fee(entranceAddr); ok {
		t.Fatalf("failed unit must not leave the fee registered")
	}

	_, err = e.proc.Execute(context.Background(), buyerAddr, "register", func(tx *txn.Tx) error {
		return fresh.RegisterFee(tx, buyerAddr, entrance)
	})
	if !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
