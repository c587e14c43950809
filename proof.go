package allotree

import (
	"slices"

	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"github.com/gordian-engine/allotree/afelt"
	"github.com/gordian-engine/allotree/arecord"
)

// Proof is an inclusion proof for a single record.
type Proof struct {
	Record arecord.Record
	Fields arecord.Fields

	// Leaf is the value of the leaf the proof starts from.
	Leaf fp.Element

	// Siblings are ordered bottom-up:
	// Siblings[0] is the leaf's sibling,
	// and the last entry is a child of the root.
	Siblings []fp.Element

	// Path has bit i set when the proven node at height i
	// (counting the leaf as height 0) is the right child of its parent.
	// Verification does not need Path, since pairs are ordered by value,
	// but it identifies which leaf position was proven.
	Path *bitset.BitSet
}

// Depth returns the number of siblings in the proof.
func (p Proof) Depth() int {
	return len(p.Siblings)
}

// Calldata renders the proof as 0x-prefixed lowercase hex strings:
// address, amount, timestamp, id, and then each sibling bottom-up.
func (p Proof) Calldata() []string {
	out := make([]string, 0, 4+len(p.Siblings))

	for _, e := range p.Fields.Elements() {
		out = append(out, afelt.Hex(&e))
	}
	for i := range p.Siblings {
		out = append(out, afelt.Hex(&p.Siblings[i]))
	}

	return out
}

// Prove returns an inclusion proof for r.
//
// The record's fields are canonicalized first,
// so a malformed query fails with [arecord.InvalidAddressError]
// or [arecord.InvalidTimestampError] before the tree is consulted.
// If r is not in the tree, the error is [AllocationNotFoundError].
//
// Traversal starts at the root and descends into
// whichever child's accessible set contains r, checking the left child first.
// When r appears more than once, the proven copy is therefore
// the one under the smaller-valued subtree at the first point of divergence.
func (t *Tree) Prove(r arecord.Record) (Proof, error) {
	f, err := arecord.Canonicalize(r)
	if err != nil {
		return Proof{}, err
	}

	siblings := make([]fp.Element, 0, t.depth)
	turns := make([]bool, 0, t.depth)

	cur := t.root
	for !cur.IsLeaf() {
		switch {
		case cur.left.Contains(r):
			siblings = append(siblings, cur.right.value)
			turns = append(turns, false)
			cur = cur.left
		case cur.right.Contains(r):
			siblings = append(siblings, cur.left.value)
			turns = append(turns, true)
			cur = cur.right
		default:
			return Proof{}, AllocationNotFoundError{Record: r}
		}
	}

	// Collected top-down; proofs read bottom-up.
	slices.Reverse(siblings)

	path := bitset.New(uint(len(turns)))
	for i, right := range turns {
		if right {
			path.Set(uint(len(turns) - 1 - i))
		}
	}

	return Proof{
		Record: r,
		Fields: f,

		Leaf: cur.value,

		Siblings: siblings,

		Path: path,
	}, nil
}

// Calldata is shorthand for proving the record with the given fields
// and rendering the result with [Proof.Calldata].
func (t *Tree) Calldata(address string, amount uint64, timestamp string, id uint64) ([]string, error) {
	p, err := t.Prove(arecord.Record{
		Address:   address,
		Amount:    amount,
		Timestamp: timestamp,
		ID:        id,
	})
	if err != nil {
		return nil, err
	}
	return p.Calldata(), nil
}
