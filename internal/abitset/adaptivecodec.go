package abitset

import (
	"fmt"
	"io"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/gordian-engine/allotree/aquic"
)

const (
	rawEncoding    byte = 0
	snappyEncoding byte = 1
)

// AdaptiveEncoder writes a one-byte header followed by
// whichever of the raw or snappy encodings is smaller.
type AdaptiveEncoder struct {
	se SnappyEncoder
}

// SendBitset writes bs to s.
func (e *AdaptiveEncoder) SendBitset(
	s aquic.SendStream,
	timeout time.Duration,
	bs *bitset.BitSet,
) error {
	e.se.encode(bs, true)

	// The remote end knows the size of the bitset up front,
	// so raw words need no length prefix,
	// and the snappy form has to beat them by the prefix size.
	if len(e.se.wordBuf) <= len(e.se.encBuf) {
		// The snappy encoder's word buffer already has the raw header.
		re := RawEncoder{buf: e.se.wordBuf}
		return re.send(s, timeout)
	}

	return e.se.send(s, timeout)
}

// AdaptiveDecoder reads bitsets written by [AdaptiveEncoder].
type AdaptiveDecoder struct {
	sd SnappyDecoder
	rd RawDecoder
}

// ReceiveBitset reads into bs, which must already have the sender's length.
func (d *AdaptiveDecoder) ReceiveBitset(
	s aquic.ReceiveStream,
	timeout time.Duration,
	bs *bitset.BitSet,
) error {
	// One deadline covers the header and the body.
	if err := setReadDeadline(s, timeout); err != nil {
		return err
	}

	var h [1]byte
	if _, err := io.ReadFull(s, h[:]); err != nil {
		return fmt.Errorf("failed to read type header for adaptive bitset: %w", err)
	}

	switch h[0] {
	case rawEncoding:
		return d.rd.receive(s, bs)
	case snappyEncoding:
		return d.sd.receive(s, bs)
	default:
		return fmt.Errorf(
			"unknown adaptive header byte 0x%x", h[0],
		)
	}
}
