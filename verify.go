package allotree

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"github.com/gordian-engine/allotree/afelt"
	"github.com/gordian-engine/allotree/ahash"
	"github.com/gordian-engine/allotree/arecord"
)

// ComputeRoot folds the leaf built from f with each sibling in order,
// pairing by ascending value at every step.
func ComputeRoot(h ahash.Hasher, f arecord.Fields, siblings []fp.Element) fp.Element {
	acc := LeafValue(h, f)
	for i := range siblings {
		acc = PairOrdered(h, &acc, &siblings[i])
	}
	return acc
}

// Verify checks that p reproduces root.
// Only p's Fields and Siblings are consulted.
func Verify(h ahash.Hasher, root fp.Element, p Proof) error {
	got := ComputeRoot(h, p.Fields, p.Siblings)
	if !got.Equal(&root) {
		return ErrProofMismatch
	}
	return nil
}

// VerifyCalldata parses calldata as produced by [Proof.Calldata]
// and checks that it reproduces root.
func VerifyCalldata(h ahash.Hasher, root fp.Element, calldata []string) error {
	if len(calldata) < 4 {
		return fmt.Errorf("calldata too short: need at least 4 elements, got %d", len(calldata))
	}

	elems := make([]fp.Element, len(calldata))
	for i, s := range calldata {
		e, err := afelt.ParseHex(s)
		if err != nil {
			return fmt.Errorf("failed to parse calldata element %d: %w", i, err)
		}
		elems[i] = e
	}

	f := arecord.Fields{
		Address:   elems[0],
		Amount:    elems[1],
		Timestamp: elems[2],
		ID:        elems[3],
	}
	got := ComputeRoot(h, f, elems[4:])
	if !got.Equal(&root) {
		return ErrProofMismatch
	}
	return nil
}
