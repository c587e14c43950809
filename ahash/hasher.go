// Package ahash defines the two-input compression function
// used to build allocation trees.
package ahash

import "github.com/consensys/gnark-crypto/ecc/stark-curve/fp"

// Hasher is the two-input, one-way compression function H.
//
// Pair is not required to be symmetric;
// the tree orders its inputs before calling Pair.
// Hasher methods must be safe to call concurrently.
type Hasher interface {
	Pair(a, b *fp.Element) fp.Element
}

// Fold hashes the elements left to right:
// Fold(h, a, b, c) == h.Pair(h.Pair(a, b), c).
//
// Fold panics if given fewer than two elements.
func Fold(h Hasher, elems ...fp.Element) fp.Element {
	if len(elems) < 2 {
		panic("BUG: Fold requires at least two elements")
	}

	acc := h.Pair(&elems[0], &elems[1])
	for i := 2; i < len(elems); i++ {
		acc = h.Pair(&acc, &elems[i])
	}
	return acc
}
