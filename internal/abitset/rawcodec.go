package abitset

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/gordian-engine/allotree/aquic"
)

// RawEncoder writes a bitset's words uncompressed.
type RawEncoder struct {
	buf []byte
}

func (e *RawEncoder) encode(bs *bitset.BitSet, adaptive bool) {
	words := bs.Words()
	nBytes := 8 * len(words)
	if adaptive {
		nBytes++
	}

	e.buf = resize(e.buf, nBytes)

	buf := e.buf
	if adaptive {
		buf[0] = rawEncoding
		buf = buf[1:]
	}

	putWords(buf, words)
}

// SendBitset writes bs to s.
func (e *RawEncoder) SendBitset(
	s aquic.SendStream,
	timeout time.Duration,
	bs *bitset.BitSet,
) error {
	e.encode(bs, false)

	return e.send(s, timeout)
}

func (e *RawEncoder) send(s aquic.SendStream, timeout time.Duration) error {
	if err := setWriteDeadline(s, timeout); err != nil {
		return err
	}

	if _, err := s.Write(e.buf); err != nil {
		return fmt.Errorf("failed to write raw bitset: %w", err)
	}

	return nil
}

// RawDecoder reads bitsets written by [RawEncoder].
type RawDecoder struct {
	buf []byte
}

// ReceiveBitset reads into bs, which must already have the sender's length.
func (d *RawDecoder) ReceiveBitset(
	s aquic.ReceiveStream,
	timeout time.Duration,
	bs *bitset.BitSet,
) error {
	if err := setReadDeadline(s, timeout); err != nil {
		return err
	}

	return d.receive(s, bs)
}

func (d *RawDecoder) receive(s aquic.ReceiveStream, bs *bitset.BitSet) error {
	words := bs.Words()
	d.buf = resize(d.buf, 8*len(words))

	if _, err := io.ReadFull(s, d.buf); err != nil {
		return fmt.Errorf("failed to read raw bitset data: %w", err)
	}

	getWords(words, d.buf)
	return nil
}

func resize(b []byte, n int) []byte {
	if cap(b) < n {
		return make([]byte, n)
	}
	return b[:n]
}

// Words are little endian on the wire,
// which is more likely to match the host's byte order.

func putWords(dst []byte, words []uint64) {
	for i, w := range words {
		binary.LittleEndian.PutUint64(dst[i*8:], w)
	}
}

func getWords(dst []uint64, src []byte) {
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint64(src[i*8:])
	}
}

func setWriteDeadline(s aquic.SendStream, timeout time.Duration) error {
	if timeout <= 0 {
		return nil
	}
	if err := s.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return fmt.Errorf("failed to set write deadline for bitset: %w", err)
	}
	return nil
}

func setReadDeadline(s aquic.ReceiveStream, timeout time.Duration) error {
	if timeout <= 0 {
		return nil
	}
	if err := s.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return fmt.Errorf("failed to set read deadline for bitset: %w", err)
	}
	return nil
}
