package valueinterp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fundCore/internal/chain"
	"fundCore/internal/errs"
	"fundCore/internal/txn"
)

var (
	usdc = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	weth = common.HexToAddress("0x0000000000000000000000000000000000000a02")
)

type units map[common.Address]*big.Int

func (u units) Unit(asset common.Address) (*big.Int, error) {
	if v, ok := u[asset]; ok {
		return v, nil
	}
	return nil, errs.E(errs.KindUnsupportedAsset, "unit", "%s", asset.Hex())
}

func pow10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}

func testUnits() units {
	return units{usdc: pow10(6), weth: pow10(18)}
}

func TestStaticConvertsAcrossDecimals(t *testing.T) {
	p := txn.NewProcessor(txn.Options{Clock: txn.NewManualClock(1)})
	s := NewStatic(testUnits())
	_, err := p.Execute(context.Background(), common.Address{}, "rates", func(tx *txn.Tx) error {
		if err := s.SetRate(tx, usdc, RateUnit); err != nil {
			return err
		}
		return s.SetRate(tx, weth, new(big.Int).Mul(big.NewInt(2000), RateUnit))
	})
	if err != nil {
		t.Fatalf("set rates: %v", err)
	}

	got, err := s.CalcCanonicalAssetValue(context.Background(), weth, pow10(18), usdc)
	if err != nil {
		t.Fatalf("calc: %v", err)
	}
	if want := new(big.Int).Mul(big.NewInt(2000), pow10(6)); got.Cmp(want) != 0 {
		t.Fatalf("expected %s, got %s", want, got)
	}

	_, _ = p.Execute(context.Background(), common.Address{}, "stale", func(tx *txn.Tx) error {
		s.Invalidate(tx, weth)
		return nil
	})
	if _, err := s.CalcCanonicalAssetValue(context.Background(), weth, pow10(18), usdc); !errors.Is(err, errs.ErrUnsupportedAsset) {
		t.Fatalf("expected unsupported asset for stale rate, got %v", err)
	}
	if !s.IsSupportedAsset(weth) {
		t.Fatalf("stale asset stays supported")
	}
}

type aggregatorStub struct {
	answers map[common.Address]*big.Int
	updated uint64
}

func (a *aggregatorStub) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	parsed, err := chain.AggregatorABI()
	if err != nil {
		return nil, err
	}
	answer, ok := a.answers[*msg.To]
	if !ok {
		return nil, fmt.Errorf("execution reverted")
	}
	if bytes.Equal(msg.Data[:4], parsed.Methods["decimals"].ID) {
		return parsed.Methods["decimals"].Outputs.Pack(uint8(8))
	}
	return parsed.Methods["latestRoundData"].Outputs.Pack(
		big.NewInt(1), answer, new(big.Int).SetUint64(a.updated), new(big.Int).SetUint64(a.updated), big.NewInt(1))
}

func TestFeedReadsAggregators(t *testing.T) {
	usdcFeed := common.HexToAddress("0x0000000000000000000000000000000000000f01")
	wethFeed := common.HexToAddress("0x0000000000000000000000000000000000000f02")
	stub := &aggregatorStub{
		answers: map[common.Address]*big.Int{usdcFeed: pow10(8), wethFeed: new(big.Int).Mul(big.NewInt(3000), pow10(8))},
		updated: 1_000,
	}
	now := func() time.Time { return time.Unix(1_100, 0) }
	f := NewFeed(stub, testUnits(), zap.NewNop(), WithNow(now), WithMaxAge(time.Hour))
	f.Register(usdc, usdcFeed)
	f.Register(weth, wethFeed)

	got, err := f.CalcCanonicalAssetValue(context.Background(), weth, new(big.Int).Div(pow10(18), big.NewInt(2)), usdc)
	if err != nil {
		t.Fatalf("calc: %v", err)
	}
	if want := new(big.Int).Mul(big.NewInt(1500), pow10(6)); got.Cmp(want) != 0 {
		t.Fatalf("expected %s, got %s", want, got)
	}

	stale := NewFeed(stub, testUnits(), nil, WithNow(func() time.Time { return time.Unix(10_000, 0) }), WithMaxAge(time.Minute))
	stale.Register(usdc, usdcFeed)
	stale.Register(weth, wethFeed)
	if _, err := stale.CalcCanonicalAssetValue(context.Background(), weth, pow10(18), usdc); !errors.Is(err, errs.ErrUnsupportedAsset) {
		t.Fatalf("expected stale answer rejection, got %v", err)
	}
}
