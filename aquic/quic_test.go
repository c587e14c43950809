package aquic_test

import (
	"io"
	"testing"

	"github.com/gordian-engine/allotree/aquic"
	"github.com/gordian-engine/allotree/aquic/aquictest"
	"github.com/gordian-engine/allotree/internal/atest"
	"github.com/stretchr/testify/require"
)

func TestDial_stream(t *testing.T) {
	t.Parallel()

	ctx := t.Context()

	tp := aquictest.NewTLSPair(t, "aquic-test")

	ql, err := aquic.Listen("127.0.0.1:0", tp.Server, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ql.Close() })

	connAcceptedCh := make(chan aquic.Conn, 1)
	go func() {
		c, err := ql.Accept(ctx)
		if err != nil {
			t.Error(err)
			return
		}
		connAcceptedCh <- c
	}()

	createdConn, err := aquic.Dial(ctx, ql.Addr().String(), tp.Client, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = createdConn.CloseWithError(0, "") })

	acceptedConn := atest.ReceiveSoon(t, connAcceptedCh)

	streamAcceptedCh := make(chan aquic.Stream, 1)
	go func() {
		acceptedStream, err := acceptedConn.AcceptStream(ctx)
		if err != nil {
			t.Error(err)
			return
		}
		streamAcceptedCh <- acceptedStream
	}()

	createdStream, err := createdConn.OpenStreamSync(ctx)
	require.NoError(t, err)
	_, err = io.WriteString(createdStream, "hello")
	require.NoError(t, err)

	acceptedStream := atest.ReceiveSoon(t, streamAcceptedCh)

	buf := make([]byte, 5)
	_, err = io.ReadFull(acceptedStream, buf)
	require.NoError(t, err)

	require.Equal(t, "hello", string(buf))
}

func TestCloseWithError_rejectsWideCode(t *testing.T) {
	t.Parallel()

	var c aquic.ConnAdapter
	require.Panics(t, func() {
		_ = c.CloseWithError(1<<62, "too wide")
	})
}
