// Package slot implements chain storage as a single serialized value in a
// key value store, mirroring a browser local storage slot.
package slot

import (
	"context"
	"errors"
	"fmt"

	"github.com/xlerion/ivachain/foundation/blockchain/ledger"
	"github.com/xlerion/ivachain/foundation/kvstore"
)

// DefaultKey is the slot the chain is stored under.
const DefaultKey = "blockchain_data"

// Slot stores the whole chain as one JSON array under a single key. This
// implements the ledger.Storage interface.
type Slot struct {
	store kvstore.Store
	key   string
}

// New constructs a Slot using the store and key. An empty key selects
// DefaultKey.
func New(store kvstore.Store, key string) *Slot {
	if key == "" {
		key = DefaultKey
	}

	return &Slot{
		store: store,
		key:   key,
	}
}

// Write serializes the chain and replaces the slot contents.
func (s *Slot) Write(ctx context.Context, blocks []ledger.Block) error {
	data, err := ledger.Encode(blocks)
	if err != nil {
		return err
	}

	if err := s.store.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("put %s: %w", s.key, err)
	}

	return nil
}

// Read deserializes the chain from the slot. It returns ledger.ErrNoChain
// when the slot is empty.
func (s *Slot) Read(ctx context.Context) ([]ledger.Block, error) {
	data, err := s.store.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, ledger.ErrNoChain
		}
		return nil, fmt.Errorf("get %s: %w", s.key, err)
	}

	return ledger.Decode(data)
}

// Close closes the underlying store.
func (s *Slot) Close() error {
	return s.store.Close()
}
