// Package allotree builds binary Merkle trees over allocation records
// and produces inclusion proofs for them.
//
// Each leaf is the fold H(H(H(address, amount), timestamp), id)
// of a record's canonical fields (see [arecord.Canonicalize]).
// Each internal node hashes its children's values in ascending numeric order,
// so combining two subtrees does not depend on which one is passed first.
//
// A proof for a record is its four canonical fields
// followed by the sibling hashes from the leaf up to the root.
// A verifier folds the fields into the leaf value,
// then folds in each sibling with the same ordered pairing,
// and compares the result with the published root.
// The rendered form of a proof, [Proof.Calldata], is intended
// to be passed as positional arguments to an on-chain verifier.
//
// Trees are immutable once built.
// Additional waves of allocations are incorporated with [*Tree.Merge],
// which returns a brand new tree.
package allotree
