// Package aquictest contains test doubles for [aquic] values.
package aquictest

import (
	"fmt"
	"io"
	"time"

	"github.com/gordian-engine/allotree/aquic"
)

// PipeStream is an in-memory [aquic.Stream].
// Writes block until the peer reads them.
// Deadlines are accepted but not enforced.
type PipeStream struct {
	r *io.PipeReader
	w *io.PipeWriter
}

var _ aquic.Stream = (*PipeStream)(nil)

// NewStreamPair returns two connected streams.
// Bytes written to one are read from the other,
// and closing one side's write half produces EOF on the other's read half,
// as with a bidirectional QUIC stream.
func NewStreamPair() (a, b *PipeStream) {
	abR, abW := io.Pipe()
	baR, baW := io.Pipe()

	return &PipeStream{r: baR, w: abW}, &PipeStream{r: abR, w: baW}
}

func (s *PipeStream) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

func (s *PipeStream) CancelRead(code aquic.StreamErrorCode) {
	_ = s.r.CloseWithError(CanceledError{Code: code})
}

func (s *PipeStream) SetReadDeadline(time.Time) error { return nil }

func (s *PipeStream) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

func (s *PipeStream) CancelWrite(code aquic.StreamErrorCode) {
	_ = s.w.CloseWithError(CanceledError{Code: code})
}

func (s *PipeStream) Close() error {
	return s.w.Close()
}

func (s *PipeStream) SetWriteDeadline(time.Time) error { return nil }

// CanceledError is observed by the peer of a [PipeStream]
// whose read or write half was canceled.
type CanceledError struct {
	Code aquic.StreamErrorCode
}

func (e CanceledError) Error() string {
	return fmt.Sprintf("stream canceled with code 0x%x", uint64(e.Code))
}
