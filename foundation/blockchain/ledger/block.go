package ledger

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/xlerion/ivachain/foundation/blockchain/signature"
)

// GenesisPreviousHash is the previous hash sentinel carried by the genesis block.
const GenesisPreviousHash = "0"

// GenesisPayload is the fixed payload of the genesis block.
const GenesisPayload = "Bloque Génesis"

// TimeFormat is the layout used for block and trace timestamps. It matches
// the ISO-8601 shape produced by JavaScript's Date.toISOString.
const TimeFormat = "2006-01-02T15:04:05.000Z"

// Timestamp formats the time in the ledger layout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// =============================================================================

// Block represents one sealed ledger entry. Index, PreviousHash, Timestamp and
// Payload are covered by Hash. Trace is not, it carries its own commitments.
type Block struct {
	Index        uint64          `json:"index"`
	Timestamp    string          `json:"timestamp"`
	Payload      json.RawMessage `json:"payload"`
	PreviousHash string          `json:"previous_hash"`
	Hash         string          `json:"hash"`
	Trace        []TraceEvent    `json:"trace"`
}

// NewBlock constructs a block with an empty hash. Call Seal to fix the hash.
func NewBlock(index uint64, timestamp string, payload json.RawMessage, previousHash string, trace []TraceEvent) Block {
	if trace == nil {
		trace = []TraceEvent{}
	}

	return Block{
		Index:        index,
		Timestamp:    timestamp,
		Payload:      payload,
		PreviousHash: previousHash,
		Trace:        trace,
	}
}

// Genesis constructs and seals the first block of a chain.
func Genesis(now time.Time) Block {
	payload, _ := json.Marshal(GenesisPayload)

	b := NewBlock(0, Timestamp(now), payload, GenesisPreviousHash, nil)
	return b.Seal()
}

// ComputeHash returns the digest over the sealed fields of the block. The
// payload is hashed in its canonical JSON form so the digest doesn't depend
// on key order or whitespace. A payload that is not valid JSON is hashed
// as raw bytes.
func (b Block) ComputeHash() string {
	payload := []byte(b.Payload)
	if len(payload) == 0 {
		payload = []byte("null")
	}

	if canon, err := signature.CanonicalBytes(payload); err == nil {
		payload = canon
	}

	return signature.Hash(
		[]byte(strconv.FormatUint(b.Index, 10)),
		[]byte(b.PreviousHash),
		[]byte(b.Timestamp),
		payload,
	)
}

// Seal fixes the block hash and commits any trace events already attached.
func (b Block) Seal() Block {
	b.Hash = b.ComputeHash()
	b.Trace = commitTrace(b.Hash, b.Trace)
	return b
}

// IsGenesis reports whether the block is in the genesis position.
func (b Block) IsGenesis() bool {
	return b.Index == 0 && b.PreviousHash == GenesisPreviousHash
}

// Decode unmarshals the payload into the provided value.
func (b Block) Decode(v any) error {
	if err := json.Unmarshal(b.Payload, v); err != nil {
		return fmt.Errorf("block %d: decode payload: %w", b.Index, err)
	}
	return nil
}

// MerkleHash returns the block hash as bytes so blocks can be the leafs of
// a merkle tree.
func (b Block) MerkleHash() ([]byte, error) {
	h, err := hex.DecodeString(b.Hash)
	if err != nil {
		return nil, fmt.Errorf("block %d: decode hash: %w", b.Index, err)
	}
	return h, nil
}

// Copy returns a copy of the block that doesn't share the trace or payload
// backing arrays.
func (b Block) Copy() Block {
	cpy := b

	cpy.Payload = append(json.RawMessage(nil), b.Payload...)
	cpy.Trace = make([]TraceEvent, len(b.Trace))
	copy(cpy.Trace, b.Trace)

	return cpy
}

// VerifyTrace checks the hash commitments of the trace events.
func (b Block) VerifyTrace() error {
	prev := b.Hash
	for i, ev := range b.Trace {
		exp := ev.commitment(prev)
		if ev.Hash != exp {
			return &ValidationError{
				Index:  b.Index,
				Reason: fmt.Sprintf("%s at event %d", ReasonTraceHash, i),
				Got:    ev.Hash,
				Exp:    exp,
			}
		}
		prev = ev.Hash
	}

	return nil
}

// validate checks the block against its predecessor. The previous block is
// ignored when the block is in position zero.
func (b Block) validate(position uint64, previous Block) error {
	hash := b.ComputeHash()
	if b.Hash != hash {
		return &ValidationError{Index: position, Reason: ReasonHash, Got: b.Hash, Exp: hash}
	}

	if position == 0 {
		if b.PreviousHash != GenesisPreviousHash || b.Index != 0 {
			return &ValidationError{Index: position, Reason: ReasonGenesis, Got: b.PreviousHash, Exp: GenesisPreviousHash}
		}
		return nil
	}

	if b.PreviousHash != previous.Hash {
		return &ValidationError{Index: position, Reason: ReasonLinkage, Got: b.PreviousHash, Exp: previous.Hash}
	}

	if b.Index != position {
		return &ValidationError{
			Index:  position,
			Reason: ReasonIndex,
			Got:    strconv.FormatUint(b.Index, 10),
			Exp:    strconv.FormatUint(position, 10),
		}
	}

	return nil
}
