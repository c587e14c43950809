package aquictest_test

import (
	"io"
	"testing"

	"github.com/gordian-engine/allotree/aquic/aquictest"
	"github.com/stretchr/testify/require"
)

func TestStreamPair_halfClose(t *testing.T) {
	t.Parallel()

	a, b := aquictest.NewStreamPair()

	go func() {
		_, _ = io.WriteString(a, "hello")
		_ = a.Close()
	}()

	got, err := io.ReadAll(b)
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))

	// b's write half is still open after a closed its own.
	go func() {
		_, _ = io.WriteString(b, "world")
		_ = b.Close()
	}()

	got, err = io.ReadAll(a)
	require.NoError(t, err)
	require.Equal(t, "world", string(got))
}

func TestStreamPair_cancelWrite(t *testing.T) {
	t.Parallel()

	a, b := aquictest.NewStreamPair()
	a.CancelWrite(7)

	_, err := b.Read(make([]byte, 1))
	var canceled aquictest.CanceledError
	require.ErrorAs(t, err, &canceled)
	require.Equal(t, uint64(7), uint64(canceled.Code))
}
