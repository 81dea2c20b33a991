// Package memory implements the ability to read and write the chain to memory
// using a slice.
package memory

import (
	"context"
	"sync"

	"github.com/xlerion/ivachain/foundation/blockchain/ledger"
)

// Memory represents the storage implementation for reading and storing
// the chain in memory using a slice. This implements the ledger.Storage
// interface.
type Memory struct {
	mu      sync.RWMutex
	blocks  []ledger.Block
	written bool
}

// New constructs an Memory value for use.
func New() (*Memory, error) {
	return &Memory{}, nil
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write replaces the stored chain with a copy of the specified blocks.
func (m *Memory) Write(ctx context.Context, blocks []ledger.Block) error {
	cpy := make([]ledger.Block, len(blocks))
	for i, b := range blocks {
		cpy[i] = b.Copy()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = cpy
	m.written = true

	return nil
}

// Read returns a copy of the stored chain. It returns ledger.ErrNoChain if
// nothing was ever written.
func (m *Memory) Read(ctx context.Context) ([]ledger.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.written {
		return nil, ledger.ErrNoChain
	}

	blocks := make([]ledger.Block, len(m.blocks))
	for i, b := range m.blocks {
		blocks[i] = b.Copy()
	}

	return blocks, nil
}

// Reset clears out the stored chain.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = nil
	m.written = false

	return nil
}
