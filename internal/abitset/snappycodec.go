package abitset

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/golang/snappy"
	"github.com/gordian-engine/allotree/aquic"
)

// SnappyEncoder writes a bitset's words snappy-compressed,
// prefixed with the compressed size as a big endian uint16.
type SnappyEncoder struct {
	// The bitset's words as bytes.
	// In adaptive mode, prefixed with the raw encoding header,
	// so it can be sent as-is if compression does not help.
	wordBuf []byte

	// The size-prefixed compressed words.
	// In adaptive mode, prefixed with the snappy encoding header.
	encBuf []byte
}

func (e *SnappyEncoder) encode(bs *bitset.BitSet, adaptive bool) {
	words := bs.Words()
	nBytes := 8 * len(words)

	hdr := 0
	if adaptive {
		hdr = 1
	}

	e.wordBuf = resize(e.wordBuf, hdr+nBytes)
	wordBuf := e.wordBuf[hdr:]
	if adaptive {
		e.wordBuf[0] = rawEncoding
	}
	putWords(wordBuf, words)

	// +2 for the size uint16.
	e.encBuf = resize(e.encBuf, hdr+2+snappy.MaxEncodedLen(nBytes))
	if adaptive {
		e.encBuf[0] = snappyEncoding
	}

	res := snappy.Encode(e.encBuf[hdr+2:], wordBuf)
	binary.BigEndian.PutUint16(e.encBuf[hdr:], uint16(len(res)))

	e.encBuf = e.encBuf[:hdr+2+len(res)]
}

// SendBitset writes bs to s.
func (e *SnappyEncoder) SendBitset(
	s aquic.SendStream,
	timeout time.Duration,
	bs *bitset.BitSet,
) error {
	e.encode(bs, false)

	return e.send(s, timeout)
}

func (e *SnappyEncoder) send(s aquic.SendStream, timeout time.Duration) error {
	if err := setWriteDeadline(s, timeout); err != nil {
		return err
	}

	if _, err := s.Write(e.encBuf); err != nil {
		return fmt.Errorf("failed to write snappy bitset: %w", err)
	}

	return nil
}

// SnappyDecoder reads bitsets written by [SnappyEncoder].
type SnappyDecoder struct {
	encBuf  []byte
	wordBuf []byte
}

// ReceiveBitset reads into bs, which must already have the sender's length.
func (d *SnappyDecoder) ReceiveBitset(
	s aquic.ReceiveStream,
	timeout time.Duration,
	bs *bitset.BitSet,
) error {
	if err := setReadDeadline(s, timeout); err != nil {
		return err
	}

	return d.receive(s, bs)
}

func (d *SnappyDecoder) receive(s aquic.ReceiveStream, bs *bitset.BitSet) error {
	var sz [2]byte
	if _, err := io.ReadFull(s, sz[:]); err != nil {
		return fmt.Errorf("failed to read snappy length for bitset: %w", err)
	}

	words := bs.Words()
	encSz := int(binary.BigEndian.Uint16(sz[:]))
	if maxSz := snappy.MaxEncodedLen(8 * len(words)); encSz > maxSz {
		return fmt.Errorf(
			"snappy bitset length %d exceeds maximum %d for %d words",
			encSz, maxSz, len(words),
		)
	}

	d.encBuf = resize(d.encBuf, encSz)
	if _, err := io.ReadFull(s, d.encBuf); err != nil {
		return fmt.Errorf("failed to read snappy-encoded bitset: %w", err)
	}

	decSz, err := snappy.DecodedLen(d.encBuf)
	if err != nil {
		return fmt.Errorf("failed to calculate snappy-decoded bitset length: %w", err)
	}
	if decSz != 8*len(words) {
		return fmt.Errorf(
			"calculated decoded size of %d bytes but expected %d",
			decSz, 8*len(words),
		)
	}

	wb, err := snappy.Decode(d.wordBuf[:cap(d.wordBuf)], d.encBuf)
	if err != nil {
		return fmt.Errorf("failed to decode snappy bitset: %w", err)
	}

	// wb could have been nil on error;
	// that's why we used the temporary variable.
	d.wordBuf = wb

	getWords(words, d.wordBuf)
	return nil
}
