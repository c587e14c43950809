package allotree

import (
	"errors"

	"github.com/gordian-engine/allotree/arecord"
)

// ErrNoAllocations is returned from [Build] when given an empty record list.
var ErrNoAllocations = errors.New("no allocations to build tree from")

// ErrProofMismatch is returned from the Verify functions
// when the folded proof does not reproduce the expected root.
var ErrProofMismatch = errors.New("proof does not reproduce root")

// AllocationNotFoundError is returned from [*Tree.Prove]
// when the queried record is not in the tree.
type AllocationNotFoundError struct {
	Record arecord.Record
}

func (e AllocationNotFoundError) Error() string {
	return "allocation not found: " + e.Record.String()
}
