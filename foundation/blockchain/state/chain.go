package state

import (
	"context"
	"time"

	"github.com/xlerion/ivachain/foundation/blockchain/ledger"
	"github.com/xlerion/ivachain/foundation/events"
)

// Append adds a block carrying the payload and its initial trace, then saves
// the chain. If the save fails the block is still returned together with an
// error wrapping ErrSave.
func (s *State) Append(ctx context.Context, payload any, trace []ledger.TraceEvent) (ledger.Block, error) {
	block, err := s.worker.submit(ctx, func(ch *ledger.Chain) (ledger.Block, error) {
		return ch.Append(payload, trace)
	})
	if block.Hash == "" {
		return ledger.Block{}, err
	}

	s.evHandler("state: append: block[%d] hash[%s]", block.Index, block.Hash)

	s.send(events.Event{
		Kind:      events.KindBlock,
		Index:     block.Index,
		Hash:      block.Hash,
		Timestamp: block.Timestamp,
	})

	return block, err
}

// AddTrace appends a trace event to the block at the index and saves the
// chain. The save failure semantics match Append.
func (s *State) AddTrace(ctx context.Context, index uint64, status string, details string) (ledger.Block, error) {
	ev := ledger.NewTraceEvent(time.Now(), status, details)

	block, err := s.worker.submit(ctx, func(ch *ledger.Chain) (ledger.Block, error) {
		return ch.AddTrace(index, ev)
	})
	if block.Hash == "" {
		return ledger.Block{}, err
	}

	s.evHandler("state: trace: block[%d] status[%s]", block.Index, status)

	s.send(events.Event{
		Kind:      events.KindTrace,
		Index:     block.Index,
		Hash:      block.Hash,
		Status:    status,
		Details:   details,
		Timestamp: ev.Timestamp,
	})

	return block, err
}

// =============================================================================

// Blocks returns a copy of the chain in order.
func (s *State) Blocks() []ledger.Block {
	return s.chain.Blocks()
}

// Block returns the block at the index.
func (s *State) Block(index uint64) (ledger.Block, error) {
	return s.chain.Block(index)
}

// Latest returns the last block of the chain.
func (s *State) Latest() (ledger.Block, error) {
	return s.chain.Latest()
}

// Len returns the number of blocks including genesis.
func (s *State) Len() int {
	return s.chain.Len()
}

// Validate checks the hashes and linkage of the in-memory chain.
func (s *State) Validate() error {
	return s.chain.Validate()
}

// ValidateTraces checks the trace commitments of the in-memory chain.
func (s *State) ValidateTraces() error {
	return ledger.ValidateTraces(s.chain.Blocks())
}
