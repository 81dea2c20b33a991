// Package ledger implements the append-only hash chain that links every
// invoice record to its predecessor and validates the chain by recomputation.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xlerion/ivachain/foundation/blockchain/signature"
)

// Storage interface represents the behavior required to be implemented by any
// package providing support for persisting and reading the chain. Write
// always receives the whole chain.
type Storage interface {
	Read(ctx context.Context) ([]Block, error)
	Write(ctx context.Context, blocks []Block) error
	Close() error
}

// =============================================================================

// Chain is the ordered sequence of blocks plus the operations to extend
// and validate it. The zero value is an empty, uninitialized chain.
type Chain struct {
	mu     sync.RWMutex
	blocks []Block
}

// New constructs an empty chain. Call Reset or Load before use.
func New() *Chain {
	return &Chain{}
}

// Reset replaces the contents of the chain with a fresh genesis block.
func (c *Chain) Reset() Block {
	genesis := Genesis(time.Now())

	c.mu.Lock()
	defer c.mu.Unlock()

	c.blocks = []Block{genesis}

	return genesis.Copy()
}

// Load validates the provided blocks and, when valid, replaces the contents
// of the chain with them. On failure the chain is left untouched and the
// error wraps ErrChainCorrupted and the ValidationError.
func (c *Chain) Load(blocks []Block) error {
	if err := Validate(blocks); err != nil {
		return fmt.Errorf("%w: %w", ErrChainCorrupted, err)
	}

	cpy := make([]Block, len(blocks))
	for i, b := range blocks {
		cpy[i] = b.Copy()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.blocks = cpy

	return nil
}

// Len returns the number of blocks, genesis included.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.blocks)
}

// Latest returns the last block of the chain.
func (c *Chain) Latest() (Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.blocks) == 0 {
		return Block{}, ErrEmptyChain
	}

	return c.blocks[len(c.blocks)-1].Copy(), nil
}

// Block returns the block at the specified index.
func (c *Chain) Block(index uint64) (Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if index >= uint64(len(c.blocks)) {
		return Block{}, fmt.Errorf("index %d: %w", index, ErrBlockNotFound)
	}

	return c.blocks[index].Copy(), nil
}

// Blocks returns a copy of the blocks in order.
func (c *Chain) Blocks() []Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	blocks := make([]Block, len(c.blocks))
	for i, b := range c.blocks {
		blocks[i] = b.Copy()
	}

	return blocks
}

// Append builds the next block linked to the current tail, seals it and adds
// it to the chain. A genesis block is created first if the chain is empty.
// The only failure is a payload that can't be represented as JSON, in which
// case nothing is appended.
func (c *Chain) Append(payload any, trace []TraceEvent) (Block, error) {
	data, err := marshalPayload(payload)
	if err != nil {
		return Block{}, err
	}

	initial := make([]TraceEvent, len(trace))
	copy(initial, trace)

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.blocks) == 0 {
		c.blocks = append(c.blocks, Genesis(time.Now()))
	}

	latest := c.blocks[len(c.blocks)-1]

	b := NewBlock(uint64(len(c.blocks)), Timestamp(time.Now()), data, latest.Hash, initial)
	b = b.Seal()

	c.blocks = append(c.blocks, b)

	return b.Copy(), nil
}

// AddTrace appends a committed trace event to the block at the specified
// index. The block hash doesn't change.
func (c *Chain) AddTrace(index uint64, ev TraceEvent) (Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index >= uint64(len(c.blocks)) {
		return Block{}, fmt.Errorf("index %d: %w", index, ErrBlockNotFound)
	}

	b := appendTrace(c.blocks[index].Copy(), ev)
	c.blocks[index] = b

	return b.Copy(), nil
}

// IsValid reports whether the chain passes validation.
func (c *Chain) IsValid() bool {
	return c.Validate() == nil
}

// Validate walks the chain and returns the first validation failure.
func (c *Chain) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Validate(c.blocks)
}

// Save writes the whole chain to the storage.
func (c *Chain) Save(ctx context.Context, storage Storage) error {
	blocks := c.Blocks()

	if err := storage.Write(ctx, blocks); err != nil {
		return fmt.Errorf("write chain: %w", err)
	}

	return nil
}

// =============================================================================

// IsValid reports whether the blocks form a valid chain. An empty chain and a
// genesis only chain are valid.
func IsValid(blocks []Block) bool {
	return Validate(blocks) == nil
}

// Validate walks the blocks from low to high index recomputing every hash and
// checking the linkage to the predecessor. It returns a *ValidationError for
// the first block that fails. Trace events are not checked.
func Validate(blocks []Block) error {
	var previous Block
	for i, b := range blocks {
		if err := b.validate(uint64(i), previous); err != nil {
			return err
		}
		previous = b
	}

	return nil
}

// ValidateTraces checks the trace commitments of every block.
func ValidateTraces(blocks []Block) error {
	for _, b := range blocks {
		if err := b.VerifyTrace(); err != nil {
			return err
		}
	}

	return nil
}

// Encode produces the persisted form of the chain, a JSON array of blocks.
func Encode(blocks []Block) ([]byte, error) {
	if blocks == nil {
		blocks = []Block{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(blocks); err != nil {
		return nil, fmt.Errorf("encode chain: %w", err)
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Decode parses the persisted form of the chain. It doesn't validate, but
// data that can't be parsed is reported as ErrChainCorrupted.
func Decode(data []byte) ([]Block, error) {
	var blocks []Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, fmt.Errorf("%w: decode chain: %w", ErrChainCorrupted, err)
	}

	for i := range blocks {
		if blocks[i].Trace == nil {
			blocks[i].Trace = []TraceEvent{}
		}
	}

	return blocks, nil
}

// marshalPayload converts the payload into its canonical JSON form.
func marshalPayload(payload any) (json.RawMessage, error) {
	var data []byte
	switch p := payload.(type) {
	case json.RawMessage:
		if !json.Valid(p) {
			return nil, errors.New("payload is not valid JSON")
		}
		data = p

	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
	}

	canon, err := signature.CanonicalBytes(data)
	if err != nil {
		return nil, err
	}

	return canon, nil
}
