package aserve

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/gordian-engine/allotree/arecord"
)

// ALPN is the TLS next protocol for proof service connections.
const ALPN = "allotree-proof/1"

// ProtocolID is the first byte of every proof request stream.
const ProtocolID byte = 0x01

// MembershipProtocolID is the first byte of every membership request stream.
const MembershipProtocolID byte = 0x02

// Status is the first byte of a proof response.
type Status byte

const (
	StatusOK       Status = 0
	StatusNotFound Status = 1
	StatusInvalid  Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not_found"
	case StatusInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("Status(%d)", byte(s))
	}
}

// ProofRequest is the record being queried.
// The record's CBOR tags define the request's wire form.
type ProofRequest = arecord.Record

// ProofResponse is the body of a proof response.
type ProofResponse struct {
	// Root is the hex root of the tree the proof was generated from.
	// Set on every status, so a client can tell which wave answered.
	Root string `cbor:"1,keyasint"`

	// Calldata is set only on StatusOK.
	Calldata []string `cbor:"2,keyasint,omitempty"`

	// Error describes why the request was rejected.
	Error string `cbor:"3,keyasint,omitempty"`
}

// MembershipRequest asks which of Records are in the served tree.
type MembershipRequest struct {
	Records []arecord.Record `cbor:"1,keyasint"`
}

// MembershipResponse is the body of a membership response.
// On StatusOK it is followed by a bitset with one bit per requested record,
// set when the record is in the tree.
type MembershipResponse struct {
	Root string `cbor:"1,keyasint"`

	// Found is the number of requested records present in the tree.
	Found int `cbor:"2,keyasint"`

	Error string `cbor:"3,keyasint,omitempty"`
}

const maxFrameSize = 1<<16 - 1

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Errorf("BUG: failed to build CBOR encoding mode: %w", err))
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		IndefLength:      cbor.IndefLengthForbidden,
		MaxArrayElements: 4096,
		MaxMapPairs:      16,
		MaxNestedLevels:  4,
	}.DecMode()
	if err != nil {
		panic(fmt.Errorf("BUG: failed to build CBOR decoding mode: %w", err))
	}
}

// appendFrame appends the uint16 length of v's encoding and the encoding itself.
func appendFrame(dst []byte, v any) ([]byte, error) {
	b, err := encMode.Marshal(v)
	if err != nil {
		return dst, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	if len(b) > maxFrameSize {
		return dst, fmt.Errorf("encoded %T is %d bytes, exceeding maximum %d", v, len(b), maxFrameSize)
	}

	dst = binary.BigEndian.AppendUint16(dst, uint16(len(b)))
	return append(dst, b...), nil
}

// readFrame reads a length-prefixed CBOR value from r into v.
func readFrame(r io.Reader, v any) error {
	var sz [2]byte
	if _, err := io.ReadFull(r, sz[:]); err != nil {
		return fmt.Errorf("failed to read frame length: %w", err)
	}

	buf := make([]byte, binary.BigEndian.Uint16(sz[:]))
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("failed to read frame body: %w", err)
	}

	if err := decMode.Unmarshal(buf, v); err != nil {
		return fmt.Errorf("failed to decode %T: %w", v, err)
	}
	return nil
}
