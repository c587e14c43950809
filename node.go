package allotree

import (
	"maps"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"github.com/gordian-engine/allotree/afelt"
	"github.com/gordian-engine/allotree/ahash"
	"github.com/gordian-engine/allotree/arecord"
)

// Node is a single node in a [Tree].
//
// A leaf has no children and carries exactly one record.
// An internal node has exactly two children,
// and its accessible set is the union of theirs.
// Each node exclusively owns its children.
type Node struct {
	left, right *Node

	// Every record reachable beneath this node.
	// Traversal during proof generation is guided only by this set.
	accessible map[arecord.Record]struct{}

	value fp.Element
}

// NewLeaf returns a leaf node for r.
// The error is from [arecord.Canonicalize].
func NewLeaf(h ahash.Hasher, r arecord.Record) (*Node, error) {
	f, err := arecord.Canonicalize(r)
	if err != nil {
		return nil, err
	}

	return &Node{
		accessible: map[arecord.Record]struct{}{r: {}},
		value:      LeafValue(h, f),
	}, nil
}

// LeafValue is the hash of a leaf with the given fields:
// H(H(H(address, amount), timestamp), id).
//
// The order of the fields is part of the contract with external verifiers.
func LeafValue(h ahash.Hasher, f arecord.Fields) fp.Element {
	return ahash.Fold(h, f.Address, f.Amount, f.Timestamp, f.ID)
}

// Combine returns a new internal node whose children are a and b.
//
// The child with the smaller value becomes the left child,
// and the node value is H(left, right).
// Therefore Combine(h, a, b) and Combine(h, b, a)
// produce nodes with identical values and accessible sets.
//
// The returned node takes ownership of a and b;
// the caller must not combine either of them again.
func Combine(h ahash.Hasher, a, b *Node) *Node {
	l, r := a, b
	if !afelt.Less(&a.value, &b.value) {
		l, r = b, a
	}

	accessible := make(map[arecord.Record]struct{}, len(l.accessible)+len(r.accessible))
	maps.Copy(accessible, l.accessible)
	maps.Copy(accessible, r.accessible)

	return &Node{
		left:  l,
		right: r,

		accessible: accessible,

		value: PairOrdered(h, &l.value, &r.value),
	}
}

// PairOrdered hashes a and b in ascending numeric order.
func PairOrdered(h ahash.Hasher, a, b *fp.Element) fp.Element {
	if afelt.Less(a, b) {
		return h.Pair(a, b)
	}
	return h.Pair(b, a)
}

// Clone returns a deep copy of n.
// The copy shares no memory with n.
func (n *Node) Clone() *Node {
	c := &Node{
		accessible: maps.Clone(n.accessible),
		value:      n.value,
	}
	if n.left != nil {
		c.left = n.left.Clone()
		c.right = n.right.Clone()
	}
	return c
}

// Value returns the node's hash.
func (n *Node) Value() fp.Element {
	return n.value
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return n.left == nil
}

// Left returns the child with the smaller value, or nil for a leaf.
func (n *Node) Left() *Node { return n.left }

// Right returns the child with the larger value, or nil for a leaf.
func (n *Node) Right() *Node { return n.right }

// Contains reports whether r is reachable beneath n.
func (n *Node) Contains(r arecord.Record) bool {
	_, ok := n.accessible[r]
	return ok
}

// AccessibleLen returns the number of distinct records reachable beneath n.
func (n *Node) AccessibleLen() int {
	return len(n.accessible)
}
