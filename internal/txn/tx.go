package txn

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Event is an event emitted during a unit of work, encoded at commit.
type Event struct {
	Emitter common.Address
	Name    string
	Args    []interface{}
}

// Tx is one atomic unit of work. Every mutation of shared state made through
// a Tx registers an undo entry; a failed unit unwinds them in reverse order.
type Tx struct {
	ctx     context.Context
	proc    *Processor
	origin  common.Address
	label   string
	now     uint64
	block   uint64
	hash    common.Hash
	journal []func()
	events  []Event
}

// Snapshot marks a savepoint within a unit of work.
type Snapshot struct {
	journal int
	events  int
}

func (tx *Tx) Context() context.Context { return tx.ctx }
func (tx *Tx) Origin() common.Address   { return tx.origin }
func (tx *Tx) Label() string            { return tx.label }
func (tx *Tx) Now() uint64              { return tx.now }
func (tx *Tx) BlockNumber() uint64      { return tx.block }
func (tx *Tx) Hash() common.Hash        { return tx.hash }

// OnRevert registers undo to run if the unit, or the enclosing savepoint, is reverted.
func (tx *Tx) OnRevert(undo func()) {
	tx.journal = append(tx.journal, undo)
}

// Emit buffers an event. Events of a reverted unit are dropped.
func (tx *Tx) Emit(emitter common.Address, name string, args ...interface{}) {
	tx.events = append(tx.events, Event{Emitter: emitter, Name: name, Args: args})
}

// Events returns the events buffered so far.
func (tx *Tx) Events() []Event {
	out := make([]Event, len(tx.events))
	copy(out, tx.events)
	return out
}

// Snapshot returns a savepoint for RevertToSnapshot.
func (tx *Tx) Snapshot() Snapshot {
	return Snapshot{journal: len(tx.journal), events: len(tx.events)}
}

// RevertToSnapshot undoes every mutation and event recorded after s.
func (tx *Tx) RevertToSnapshot(s Snapshot) {
	for i := len(tx.journal) - 1; i >= s.journal; i-- {
		tx.journal[i]()
	}
	tx.journal = tx.journal[:s.journal]
	tx.events = tx.events[:s.events]
}

// Try runs fn inside a savepoint and reverts only fn's effects if it fails.
func (tx *Tx) Try(fn func() error) error {
	snap := tx.Snapshot()
	if err := fn(); err != nil {
		tx.RevertToSnapshot(snap)
		return err
	}
	return nil
}

// CreateAddress derives the next contract-style address for deployer.
func (tx *Tx) CreateAddress(deployer common.Address) common.Address {
	nonce := tx.proc.nonces[deployer]
	tx.proc.nonces[deployer] = nonce + 1
	tx.OnRevert(func() {
		if nonce == 0 {
			delete(tx.proc.nonces, deployer)
			return
		}
		tx.proc.nonces[deployer] = nonce
	})
	return crypto.CreateAddress(deployer, nonce)
}

func (tx *Tx) revertAll() {
	tx.RevertToSnapshot(Snapshot{})
}
