package token

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fundCore/internal/errs"
	"fundCore/internal/txn"
)

var (
	usdc   = common.HexToAddress("0x00000000000000000000000000000000000005dc")
	holder = common.HexToAddress("0x0000000000000000000000000000000000000101")
	other  = common.HexToAddress("0x0000000000000000000000000000000000000202")
)

func setup(t *testing.T) (*txn.Processor, *Ledger) {
	t.Helper()
	p := txn.NewProcessor(txn.Options{Clock: txn.NewManualClock(1)})
	l := NewLedger(zap.NewNop())
	_, err := p.Execute(context.Background(), holder, "setup", func(tx *txn.Tx) error {
		if err := l.RegisterAsset(tx, usdc, "USDC", 6); err != nil {
			return err
		}
		return l.Mint(tx, usdc, holder, big.NewInt(1_000_000))
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	return p, l
}

func TestTransferConservesSupply(t *testing.T) {
	p, l := setup(t)
	_, err := p.Execute(context.Background(), holder, "move", func(tx *txn.Tx) error {
		return l.Wallet(holder).Transfer(tx, usdc, other, big.NewInt(250_000))
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	sum := new(big.Int).Add(l.BalanceOf(usdc, holder), l.BalanceOf(usdc, other))
	if sum.Cmp(l.TotalSupply(usdc)) != 0 {
		t.Fatalf("supply %s != balances %s", l.TotalSupply(usdc), sum)
	}
	if l.BalanceOf(usdc, other).Int64() != 250_000 {
		t.Fatalf("unexpected balance %s", l.BalanceOf(usdc, other))
	}
}

func TestOverdraftFails(t *testing.T) {
	p, l := setup(t)
	_, err := p.Execute(context.Background(), other, "overdraft", func(tx *txn.Tx) error {
		return l.Transfer(tx, usdc, other, holder, big.NewInt(1))
	})
	if !errors.Is(err, errs.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
}

func TestUnitAndRegistration(t *testing.T) {
	p, l := setup(t)
	unit, err := l.Unit(usdc)
	if err != nil || unit.Int64() != 1_000_000 {
		t.Fatalf("unexpected unit %v (%v)", unit, err)
	}
	_, err = p.Execute(context.Background(), holder, "again", func(tx *txn.Tx) error {
		return l.RegisterAsset(tx, usdc, "USDC", 6)
	})
	if !errors.Is(err, errs.ErrAlreadyInitialized) {
		t.Fatalf("expected already initialized, got %v", err)
	}
	if _, err := l.Unit(other); !errors.Is(err, errs.ErrUnsupportedAsset) {
		t.Fatalf("expected unsupported asset, got %v", err)
	}
}
