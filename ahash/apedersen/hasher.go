// Package apedersen provides the production [ahash.Hasher],
// the Pedersen hash over the STARK curve.
//
// This is the same function as Cairo's pedersen builtin,
// so roots and proofs can be checked by a StarkNet contract.
package apedersen

import (
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	pedersenhash "github.com/consensys/gnark-crypto/ecc/stark-curve/pedersen-hash"
	"github.com/gordian-engine/allotree/ahash"
)

var _ ahash.Hasher = Hasher{}

// Hasher is an [ahash.Hasher] backed by the STARK Pedersen hash.
type Hasher struct{}

func (Hasher) Pair(a, b *fp.Element) fp.Element {
	return pedersenhash.Pedersen(a, b)
}
