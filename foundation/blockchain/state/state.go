// Package state is the core API for the ledger. It owns the chain and its
// storage for the life of the process and serializes every write.
package state

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/xlerion/ivachain/foundation/blockchain/ledger"
	"github.com/xlerion/ivachain/foundation/blockchain/signature"
	"github.com/xlerion/ivachain/foundation/events"
)

// Set of error variables for the state.
var (
	ErrShutdown = errors.New("state is shutting down")
	ErrNoSealer = errors.New("no sealer key configured")
	ErrSave     = errors.New("chain not persisted")
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// =============================================================================

// Config represents the configuration required to start the ledger.
type Config struct {
	Storage        ledger.Storage
	SealerKey      *ecdsa.PrivateKey
	ResetOnCorrupt bool
	EvHandler      EventHandler
	Events         *events.Events
}

// State manages the chain and its storage.
type State struct {
	evHandler EventHandler
	storage   ledger.Storage
	chain     *ledger.Chain
	sealerKey *ecdsa.PrivateKey
	events    *events.Events

	worker *worker
}

// New loads the chain from storage and starts the writer. A genesis block is
// created and saved when nothing is stored. A stored chain that fails
// validation is an error unless ResetOnCorrupt is set, in which case the
// chain is discarded and replaced by a fresh genesis block.
func New(ctx context.Context, cfg Config) (*State, error) {
	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	state := State{
		evHandler: ev,
		storage:   cfg.Storage,
		chain:     ledger.New(),
		sealerKey: cfg.SealerKey,
		events:    cfg.Events,
	}

	if err := state.load(ctx, cfg.ResetOnCorrupt); err != nil {
		return nil, err
	}

	runWorker(&state, ev)

	return &state, nil
}

// Shutdown stops the writer and closes the storage.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	s.worker.shutdown()

	if err := s.storage.Close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}

	return nil
}

// SealerAddress returns the address of the sealer key or an empty string
// when none is configured.
func (s *State) SealerAddress() string {
	if s.sealerKey == nil {
		return ""
	}

	return signature.Address(s.sealerKey)
}

// =============================================================================

// load reads the stored chain into memory.
func (s *State) load(ctx context.Context, resetOnCorrupt bool) error {
	s.evHandler("state: load: started")
	defer s.evHandler("state: load: completed")

	// A stored empty chain is treated like no chain and gets a genesis block.
	blocks, err := s.storage.Read(ctx)
	switch {
	case err == nil && len(blocks) == 0:
		err = ledger.ErrNoChain
	case err == nil:
		err = s.chain.Load(blocks)
	}

	switch {
	case err == nil:
		s.evHandler("state: load: blocks[%d]", s.chain.Len())
		return nil

	case errors.Is(err, ledger.ErrNoChain):
		genesis := s.chain.Reset()
		s.evHandler("state: load: seeded genesis: hash[%s]", genesis.Hash)

	case errors.Is(err, ledger.ErrChainCorrupted) && resetOnCorrupt:
		s.evHandler("state: load: WARNING: discarding stored chain: %s", err)

		genesis := s.chain.Reset()
		s.send(events.Event{
			Kind:      events.KindReset,
			Hash:      genesis.Hash,
			Details:   err.Error(),
			Timestamp: ledger.Timestamp(time.Now()),
		})

	default:
		return fmt.Errorf("load chain: %w", err)
	}

	if err := s.chain.Save(ctx, s.storage); err != nil {
		return fmt.Errorf("save genesis: %w", err)
	}

	return nil
}

// send publishes the event when an events value is configured.
func (s *State) send(e events.Event) {
	if s.events != nil {
		s.events.Send(e)
	}
}
