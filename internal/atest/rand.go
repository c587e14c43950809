package atest

import (
	"crypto/sha256"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/gordian-engine/allotree/arecord"
)

// RandomRecordsForTest returns n distinct, valid records
// derived from a seed based on the test name,
// so that a given test always sees the same records.
func RandomRecordsForTest(t *testing.T, n int) []arecord.Record {
	// Sha256 happens to be the right size for the chacha8 seed,
	// and this fits well anyway since that means
	// we are not limited by the length of any particular test name.
	seed := sha256.Sum256([]byte(t.Name()))
	rng := rand.New(rand.NewChaCha8(seed))

	out := make([]arecord.Record, n)
	for i := range out {
		var addr [20]byte
		for j := range addr {
			addr[j] = byte(rng.UintN(256))
		}

		out[i] = arecord.Record{
			// 160-bit addresses are always below the field modulus.
			Address: fmt.Sprintf("0x%x", addr),
			Amount:  rng.Uint64N(1_000_000),
			// The index in the timestamp keeps the records distinct.
			Timestamp: fmt.Sprintf("0x%x", 1_700_000_000+i),
			ID:        uint64(i + 1),
		}
	}

	return out
}
