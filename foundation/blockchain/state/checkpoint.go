package state

import (
	"fmt"

	"github.com/xlerion/ivachain/foundation/blockchain/ledger"
	"github.com/xlerion/ivachain/foundation/blockchain/merkle"
	"github.com/xlerion/ivachain/foundation/blockchain/signature"
)

// Checkpoint summarizes the whole chain with the merkle root of the block
// hashes. It is signed when a sealer key is configured.
type Checkpoint struct {
	Blocks    int    `json:"blocks"`
	Latest    string `json:"latest"`
	Root      string `json:"root"`
	Sealer    string `json:"sealer,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// Proof shows the block at the index is covered by the checkpoint root.
type Proof struct {
	Index uint64        `json:"index"`
	Hash  string        `json:"hash"`
	Root  string        `json:"root"`
	Steps []merkle.Step `json:"steps"`
}

// checkpointClaim is the part of the checkpoint that is signed.
type checkpointClaim struct {
	Blocks int    `json:"blocks"`
	Root   string `json:"root"`
}

// Checkpoint computes the merkle root over the current chain.
func (s *State) Checkpoint() (Checkpoint, error) {
	blocks := s.chain.Blocks()

	tree, err := merkle.NewTree(blocks)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("build tree: %w", err)
	}

	cp := Checkpoint{
		Blocks: len(blocks),
		Latest: blocks[len(blocks)-1].Hash,
		Root:   tree.RootHex(),
	}

	if s.sealerKey != nil {
		v, r, sig, err := signature.Sign(checkpointClaim{Blocks: cp.Blocks, Root: cp.Root}, s.sealerKey)
		if err != nil {
			return Checkpoint{}, fmt.Errorf("sign checkpoint: %w", err)
		}

		cp.Sealer = signature.Address(s.sealerKey)
		cp.Signature = signature.SignatureString(v, r, sig)
	}

	return cp, nil
}

// Proof returns the merkle proof for the block at the index against the
// current checkpoint root.
func (s *State) Proof(index uint64) (Proof, error) {
	blocks := s.chain.Blocks()
	if index >= uint64(len(blocks)) {
		return Proof{}, fmt.Errorf("index %d: %w", index, ledger.ErrBlockNotFound)
	}

	tree, err := merkle.NewTree(blocks)
	if err != nil {
		return Proof{}, fmt.Errorf("build tree: %w", err)
	}

	steps, err := tree.Proof(int(index))
	if err != nil {
		return Proof{}, err
	}

	p := Proof{
		Index: index,
		Hash:  blocks[index].Hash,
		Root:  tree.RootHex(),
		Steps: steps,
	}

	return p, nil
}

// VerifyProof checks the proof recomputes its root from the block hash.
func VerifyProof(p Proof) error {
	leaf, err := ledger.Block{Index: p.Index, Hash: p.Hash}.MerkleHash()
	if err != nil {
		return err
	}

	return merkle.Verify(leaf, p.Steps, p.Root)
}
