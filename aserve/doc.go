// Package aserve serves allocation proofs over QUIC.
//
// Each query uses its own bidirectional stream.
// The client writes a protocol byte, a big endian uint16 length,
// and a CBOR-encoded request, then closes its send side.
// The server replies with a [Status] byte, a big endian uint16 length,
// and a CBOR-encoded response.
//
// A proof request starts with [ProtocolID] and carries a [ProofRequest].
// On [StatusOK], the [ProofResponse] is followed by the proof's raw path bitset,
// sized by the number of siblings in the calldata.
//
// A membership request starts with [MembershipProtocolID]
// and carries a [MembershipRequest] listing many records.
// On [StatusOK], the [MembershipResponse] is followed by
// an adaptively compressed bitset with one bit per requested record.
//
// The [Server] answers from one tree at a time,
// which [*Server.SetTree] replaces atomically
// when a new distribution wave is published.
package aserve
