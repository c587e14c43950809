package atest

import (
	"testing"
	"time"
)

// ReceiveSoon returns the value received from ch,
// failing the test if nothing arrives within a short timeout.
func ReceiveSoon[T any](t testing.TB, ch <-chan T) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for receive")
	}

	var zero T
	return zero
}
