package txn

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"fundCore/internal/events"
	"fundCore/internal/model"
)

// Sink receives the event records of committed units.
type Sink interface {
	PutEventBatch(ctx context.Context, records []model.EventRecord) error
}

// Recorder observes unit outcomes.
type Recorder interface {
	ObserveUnit(label string, elapsed time.Duration, events int, err error)
}

// Receipt describes a committed unit.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	Timestamp   uint64
	Label       string
	Events      []model.EventRecord
}

// Find returns the records named name, in emission order.
func (r *Receipt) Find(name string) []model.EventRecord {
	var out []model.EventRecord
	for _, rec := range r.Events {
		if rec.Name == name {
			out = append(out, rec)
		}
	}
	return out
}

// Options configures a Processor.
type Options struct {
	Clock    Clock
	Sinks    []Sink
	Recorder Recorder
	Logger   *zap.Logger
}

// Processor runs units of work one at a time in a single global order.
type Processor struct {
	mu       sync.Mutex
	clock    Clock
	sinks    []Sink
	recorder Recorder
	logger   *zap.Logger
	block    uint64
	lastTs   uint64
	nonces   map[common.Address]uint64
}

func NewProcessor(opts Options) *Processor {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = &SystemClock{}
	}
	return &Processor{
		clock:    clock,
		sinks:    opts.Sinks,
		recorder: opts.Recorder,
		logger:   logger,
		nonces:   make(map[common.Address]uint64),
	}
}

// AddSink registers another sink for subsequent commits.
func (p *Processor) AddSink(s Sink) {
	p.mu.Lock()
	p.sinks = append(p.sinks, s)
	p.mu.Unlock()
}

// BlockNumber returns the number of the last committed unit.
func (p *Processor) BlockNumber() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.block
}

// View runs fn while no unit is executing.
func (p *Processor) View(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn()
}

// Execute runs fn as one atomic unit. If fn fails or panics, every mutation it
// made through the Tx is undone and no events are published.
func (p *Processor) Execute(ctx context.Context, origin common.Address, label string, fn func(*Tx) error) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	now := p.clock.Now()
	if now < p.lastTs {
		now = p.lastTs
	}
	block := p.block + 1
	tx := &Tx{
		ctx:    ctx,
		proc:   p,
		origin: origin,
		label:  label,
		now:    now,
		block:  block,
		hash:   unitHash(origin, block, label),
	}

	records, err := p.run(tx, fn)
	if p.recorder != nil {
		p.recorder.ObserveUnit(label, time.Since(start), len(records), err)
	}
	if err != nil {
		p.logger.Debug("unit reverted",
			zap.String("label", label),
			zap.String("origin", origin.Hex()),
			zap.Error(err),
		)
		return nil, err
	}

	p.block = block
	p.lastTs = now
	receipt := &Receipt{
		TxHash:      tx.hash,
		BlockNumber: block,
		Timestamp:   now,
		Label:       label,
		Events:      records,
	}
	p.publish(ctx, records)
	return receipt, nil
}

func (p *Processor) run(tx *Tx, fn func(*Tx) error) (records []model.EventRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			tx.revertAll()
			panic(r)
		}
	}()

	if err = fn(tx); err == nil {
		records, err = encodeEvents(tx)
	}
	if err != nil {
		tx.revertAll()
		return nil, err
	}
	return records, nil
}

func (p *Processor) publish(ctx context.Context, records []model.EventRecord) {
	if len(records) == 0 {
		return
	}
	for _, sink := range p.sinks {
		if err := sink.PutEventBatch(ctx, records); err != nil {
			p.logger.Warn("event sink failed", zap.Int("events", len(records)), zap.Error(err))
		}
	}
}

func encodeEvents(tx *Tx) ([]model.EventRecord, error) {
	records := make([]model.EventRecord, 0, len(tx.events))
	for i, ev := range tx.events {
		topics, data, err := events.Encode(ev.Name, ev.Args)
		if err != nil {
			return nil, fmt.Errorf("encode event: %w", err)
		}
		hexTopics := make([]string, len(topics))
		for j, t := range topics {
			hexTopics[j] = t.Hex()
		}
		records = append(records, model.EventRecord{
			TxHash:      tx.hash.Hex(),
			BlockNumber: tx.block,
			LogIndex:    uint64(i),
			Emitter:     ev.Emitter.Hex(),
			Name:        ev.Name,
			Topics:      hexTopics,
			Data:        hexutil.Encode(data),
			Timestamp:   tx.now,
			Origin:      tx.origin.Hex(),
			Label:       tx.label,
		})
	}
	return records, nil
}

func unitHash(origin common.Address, block uint64, label string) common.Hash {
	var num [8]byte
	binary.BigEndian.PutUint64(num[:], block)
	return crypto.Keccak256Hash(origin.Bytes(), num[:], []byte(label))
}
