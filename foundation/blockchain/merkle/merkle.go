// Copyright 2017 Cameron Bergoon
// https://github.com/cbergoon/merkletree
// Licensed under the MIT License, see LICENCE file for details.
// This code has been cleaned up, refactored, and turned into generics.

// Package merkle builds a merkle tree over the blocks of the chain so a
// single root can stand for the whole ledger and any block can be proven
// to be part of it.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrEmpty is returned when a tree is constructed with no values.
var ErrEmpty = errors.New("cannot construct tree with no content")

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree.
type Hashable interface {
	MerkleHash() ([]byte, error)
}

// Step is one sibling hash on the path from a leaf to the root. Left is set
// when the sibling is concatenated before the running hash.
type Step struct {
	Hash string `json:"hash"`
	Left bool   `json:"left"`
}

// =============================================================================

// Tree represents a merkle tree that uses data of some type T that exhibits the
// behavior defined by the Hashable constraint. Levels are stored bottom up,
// the last level holds only the root.
type Tree[T Hashable] struct {
	values []T
	levels [][][]byte
}

// NewTree constructs the tree from the values. A level with an odd number of
// nodes pairs its last node with itself.
func NewTree[T Hashable](values []T) (*Tree[T], error) {
	if len(values) == 0 {
		return nil, ErrEmpty
	}

	leafs := make([][]byte, len(values))
	for i, v := range values {
		h, err := v.MerkleHash()
		if err != nil {
			return nil, fmt.Errorf("leaf %d: %w", i, err)
		}
		leafs[i] = h
	}

	t := Tree[T]{
		values: append([]T(nil), values...),
		levels: [][][]byte{leafs},
	}

	for level := leafs; len(level) > 1; {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			right := i + 1
			if right == len(level) {
				right = i
			}
			next = append(next, pair(level[i], level[right]))
		}

		t.levels = append(t.levels, next)
		level = next
	}

	return &t, nil
}

// Root returns the merkle root.
func (t *Tree[T]) Root() []byte {
	return t.levels[len(t.levels)-1][0]
}

// RootHex converts the merkle root byte hash to a hex encoded string.
func (t *Tree[T]) RootHex() string {
	return hexutil.Encode(t.Root())
}

// Values returns the values the tree was built from.
func (t *Tree[T]) Values() []T {
	return append([]T(nil), t.values...)
}

// Proof returns the sibling hashes needed to recompute the root from the
// leaf at the specified position.
func (t *Tree[T]) Proof(index int) ([]Step, error) {
	if index < 0 || index >= len(t.values) {
		return nil, fmt.Errorf("leaf %d out of range [0, %d)", index, len(t.values))
	}

	var proof []Step
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := index ^ 1
		if sibling == len(level) {
			sibling = index
		}

		proof = append(proof, Step{
			Hash: hexutil.Encode(level[sibling]),
			Left: sibling < index,
		})
		index /= 2
	}

	return proof, nil
}

// =============================================================================

// Verify recomputes the root from the leaf hash and the proof and compares it
// with the expected root.
func Verify(leaf []byte, proof []Step, root string) error {
	want, err := hexutil.Decode(root)
	if err != nil {
		return fmt.Errorf("decode root: %w", err)
	}

	got := leaf
	for i, step := range proof {
		sibling, err := hexutil.Decode(step.Hash)
		if err != nil {
			return fmt.Errorf("decode step %d: %w", i, err)
		}

		if step.Left {
			got = pair(sibling, got)
			continue
		}
		got = pair(got, sibling)
	}

	if !bytes.Equal(got, want) {
		return errors.New("merkle root is not equivalent to the root calculated from the proof")
	}

	return nil
}

func pair(left []byte, right []byte) []byte {
	h := sha256.New()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}
