package allotree

import (
	"fmt"
	"slices"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"github.com/gordian-engine/allotree/afelt"
	"github.com/gordian-engine/allotree/ahash"
	"github.com/gordian-engine/allotree/ahash/apedersen"
	"github.com/gordian-engine/allotree/arecord"
)

// BuildConfig is the configuration used for [Build].
type BuildConfig struct {
	// Hasher is the compression function H.
	// If nil, [apedersen.Hasher] is used.
	//
	// Consumers of the tree need the same Hasher
	// in order to verify proofs against the root.
	Hasher ahash.Hasher
}

func (c BuildConfig) hasher() ahash.Hasher {
	if c.Hasher == nil {
		return apedersen.Hasher{}
	}
	return c.Hasher
}

// Tree is a binary Merkle tree over allocation records.
//
// Create a Tree with [Build].
// A Tree is never modified after Build returns,
// so it is safe to generate proofs from multiple goroutines.
type Tree struct {
	root *Node

	// The records as given to Build,
	// without the padding leaves.
	allocations []arecord.Record

	h ahash.Hasher

	// Every leaf is at this depth,
	// because every level is padded to an even width.
	depth int
}

// Build builds a tree over records, preserving their order.
//
// If there is an odd number of records,
// the last record is duplicated to make the leaf count even.
// Each level is then paired left to right;
// if a higher level has an odd width,
// its last node is paired with a copy of itself.
//
// Build fails with [ErrNoAllocations] on an empty list.
// If any record fails to canonicalize,
// no tree is returned and the error identifies the record's index.
// Identical records are permitted.
func Build(records []arecord.Record, cfg BuildConfig) (*Tree, error) {
	if len(records) == 0 {
		return nil, ErrNoAllocations
	}

	h := cfg.hasher()

	// One extra slot in case of odd count.
	level := make([]*Node, len(records), len(records)+1)
	for i, r := range records {
		n, err := NewLeaf(h, r)
		if err != nil {
			return nil, fmt.Errorf("failed to build leaf for allocation %d: %w", i, err)
		}
		level[i] = n
	}

	if len(level)&1 == 1 {
		level = append(level, level[len(level)-1].Clone())
	}

	depth := 0
	for len(level) > 1 {
		next := make([]*Node, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			l := level[i]
			var r *Node
			if i+1 < len(level) {
				r = level[i+1]
			} else {
				// Only possible above the leaf level.
				r = l.Clone()
			}
			next = append(next, Combine(h, l, r))
		}

		level = next
		depth++
	}

	return &Tree{
		root: level[0],

		allocations: slices.Clone(records),

		h: h,

		depth: depth,
	}, nil
}

// Merge returns a new tree built from t's records followed by records.
//
// The new tree uses the same Hasher as t.
// Nothing is reused from t's nodes; the cost is that of a fresh [Build].
// t itself is unchanged.
func (t *Tree) Merge(records []arecord.Record) (*Tree, error) {
	combined := make([]arecord.Record, 0, len(t.allocations)+len(records))
	combined = append(combined, t.allocations...)
	combined = append(combined, records...)

	return Build(combined, BuildConfig{Hasher: t.h})
}

// Root returns the root node.
// The caller must not modify the returned node.
func (t *Tree) Root() *Node {
	return t.root
}

// RootValue returns the root hash.
func (t *Tree) RootValue() fp.Element {
	return t.root.value
}

// RootHex returns the root hash as a 0x-prefixed hex string.
func (t *Tree) RootHex() string {
	return afelt.Hex(&t.root.value)
}

// RootDecimal returns the root hash in base 10.
func (t *Tree) RootDecimal() string {
	return afelt.Decimal(&t.root.value)
}

// Allocations returns a copy of the records t was built from, in input order.
func (t *Tree) Allocations() []arecord.Record {
	return slices.Clone(t.allocations)
}

// Len returns the number of records t was built from,
// not counting padding.
func (t *Tree) Len() int {
	return len(t.allocations)
}

// Depth returns the number of levels between a leaf and the root,
// which is also the number of siblings in every proof.
func (t *Tree) Depth() int {
	return t.depth
}

// Hasher returns the compression function t was built with.
func (t *Tree) Hasher() ahash.Hasher {
	return t.h
}
