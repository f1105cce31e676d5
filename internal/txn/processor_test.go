package txn

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fundCore/internal/events"
	"fundCore/internal/model"
)

type captureSink struct {
	batches [][]model.EventRecord
	err     error
}

func (s *captureSink) PutEventBatch(_ context.Context, records []model.EventRecord) error {
	s.batches = append(s.batches, records)
	return s.err
}

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

func TestExecuteRevertsJournalOnError(t *testing.T) {
	sink := &captureSink{}
	p := NewProcessor(Options{Clock: NewManualClock(100), Sinks: []Sink{sink}, Logger: zap.NewNop()})
	balances := NewMap[common.Address, *big.Int]()
	var list List[common.Address]

	_, err := p.Execute(context.Background(), alice, "seed", func(tx *Tx) error {
		balances.Set(tx, alice, big.NewInt(10))
		list.Add(tx, alice)
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	boom := errors.New("boom")
	_, err = p.Execute(context.Background(), alice, "fail", func(tx *Tx) error {
		balances.Set(tx, alice, big.NewInt(1))
		balances.Set(tx, bob, big.NewInt(9))
		list.Add(tx, bob)
		list.Remove(tx, alice)
		tx.Emit(alice, events.Transfer, alice, bob, big.NewInt(9))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if got, _ := balances.Get(alice); got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("alice balance not restored: %s", got)
	}
	if _, ok := balances.Get(bob); ok {
		t.Fatalf("bob entry should be removed")
	}
	if items := list.Items(); len(items) != 1 || items[0] != alice {
		t.Fatalf("list not restored: %v", items)
	}
	if len(sink.batches) != 0 {
		t.Fatalf("no events should be published, got %d batches", len(sink.batches))
	}
	if p.BlockNumber() != 1 {
		t.Fatalf("failed unit must not advance block, got %d", p.BlockNumber())
	}
}

func TestSnapshotRevertsOnlyInnerEffects(t *testing.T) {
	p := NewProcessor(Options{Clock: NewManualClock(1)})
	var v Value[int]

	receipt, err := p.Execute(context.Background(), alice, "nested", func(tx *Tx) error {
		v.Set(tx, 1)
		tx.Emit(alice, events.TrackedAssetAdded, bob)
		inner := tx.Try(func() error {
			v.Set(tx, 2)
			tx.Emit(alice, events.TrackedAssetRemoved, bob)
			return errors.New("inner")
		})
		if inner == nil {
			t.Fatalf("expected inner error")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if v.Get() != 1 {
		t.Fatalf("expected 1, got %d", v.Get())
	}
	if len(receipt.Events) != 1 || receipt.Events[0].Name != events.TrackedAssetAdded {
		t.Fatalf("unexpected events: %+v", receipt.Events)
	}
}

func TestExecuteRevertsOnPanic(t *testing.T) {
	p := NewProcessor(Options{Clock: NewManualClock(1)})
	var v Value[string]

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		_, _ = p.Execute(context.Background(), alice, "panic", func(tx *Tx) error {
			v.Set(tx, "dirty")
			panic("bad")
		})
	}()
	if v.Get() != "" {
		t.Fatalf("value not reverted: %q", v.Get())
	}

	if _, err := p.Execute(context.Background(), alice, "after", func(tx *Tx) error { return nil }); err != nil {
		t.Fatalf("processor unusable after panic: %v", err)
	}
}

func TestCreateAddressDeterministicAndJournaled(t *testing.T) {
	p := NewProcessor(Options{Clock: NewManualClock(1)})
	var first, again common.Address

	_, _ = p.Execute(context.Background(), alice, "fail", func(tx *Tx) error {
		first = tx.CreateAddress(alice)
		return errors.New("undo")
	})
	_, err := p.Execute(context.Background(), alice, "ok", func(tx *Tx) error {
		again = tx.CreateAddress(alice)
		if next := tx.CreateAddress(alice); next == again {
			t.Fatalf("second address must differ")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if first != again {
		t.Fatalf("nonce not reverted: %s vs %s", first.Hex(), again.Hex())
	}
}

func TestCommitPublishesEncodedRecords(t *testing.T) {
	sink := &captureSink{err: errors.New("disk full")}
	clock := NewManualClock(500)
	p := NewProcessor(Options{Clock: clock, Sinks: []Sink{sink}})

	receipt, err := p.Execute(context.Background(), alice, "transfer", func(tx *Tx) error {
		if tx.Now() != 500 {
			t.Fatalf("unexpected now %d", tx.Now())
		}
		tx.Emit(bob, events.Transfer, alice, bob, big.NewInt(42))
		return nil
	})
	if err != nil {
		t.Fatalf("sink failure must not fail commit: %v", err)
	}
	if len(sink.batches) != 1 || len(sink.batches[0]) != 1 {
		t.Fatalf("expected one published record")
	}

	rec := receipt.Events[0]
	if rec.Emitter != bob.Hex() || rec.Timestamp != 500 || rec.Label != "transfer" || rec.Origin != alice.Hex() {
		t.Fatalf("unexpected record: %+v", rec)
	}
	decoded, err := events.Decode(rec)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["value"].(*big.Int).Cmp(big.NewInt(42)) != 0 || decoded["to"].(common.Address) != bob {
		t.Fatalf("unexpected decoded values: %v", decoded)
	}
	if len(receipt.Find(events.Transfer)) != 1 {
		t.Fatalf("Find should locate the transfer")
	}
}

func TestUnknownEventFailsUnit(t *testing.T) {
	p := NewProcessor(Options{Clock: NewManualClock(1)})
	var v Value[int]
	_, err := p.Execute(context.Background(), alice, "bad", func(tx *Tx) error {
		v.Set(tx, 7)
		tx.Emit(alice, "NoSuchEvent")
		return nil
	})
	if err == nil {
		t.Fatalf("expected encode failure")
	}
	if v.Get() != 0 {
		t.Fatalf("value not reverted")
	}
}

func TestCancelledContextRejected(t *testing.T) {
	p := NewProcessor(Options{Clock: NewManualClock(1)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Execute(ctx, alice, "x", func(tx *Tx) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestManualClockAdvance(t *testing.T) {
	c := NewManualClock(10)
	c.Advance(5)
	if c.Now() != 15 {
		t.Fatalf("expected 15, got %d", c.Now())
	}
}
