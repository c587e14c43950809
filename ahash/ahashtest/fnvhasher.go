package ahashtest

import (
	"hash/fnv"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"github.com/gordian-engine/allotree/afelt"
	"github.com/gordian-engine/allotree/ahash"
)

var _ ahash.Hasher = FNVHasher{}

// FNVHasher is a fast, insecure [ahash.Hasher] for tests
// that care about tree shape rather than collision resistance.
// Its outputs fit in 64 bits, which keeps expected values readable.
type FNVHasher struct{}

func (FNVHasher) Pair(a, b *fp.Element) fp.Element {
	h := fnv.New64a()
	ab := a.Bytes()
	bb := b.Bytes()
	_, _ = h.Write([]byte("P."))
	_, _ = h.Write(ab[:])
	_, _ = h.Write(bb[:])
	return afelt.FromUint64(h.Sum64())
}
