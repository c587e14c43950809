// Package ahashtest contains a compliance suite for [ahash.Hasher] implementations.
package ahashtest

import (
	"testing"

	"github.com/gordian-engine/allotree/afelt"
	"github.com/gordian-engine/allotree/ahash"
	"github.com/stretchr/testify/require"
)

type HasherFactory func() ahash.Hasher

func TestHasherCompliance(t *testing.T, f HasherFactory) {
	t.Run("pair is deterministic", func(t *testing.T) {
		t.Parallel()

		h := f()

		a := afelt.FromUint64(150)
		b := afelt.FromUint64(2)

		require.Equal(t, h.Pair(&a, &b), h.Pair(&a, &b))
		require.Equal(t, h.Pair(&a, &b), f().Pair(&a, &b))
	})

	t.Run("pair respects order", func(t *testing.T) {
		t.Parallel()

		h := f()

		a := afelt.FromUint64(1)
		b := afelt.FromUint64(2)

		require.NotEqual(t, h.Pair(&a, &b), h.Pair(&b, &a))
	})

	t.Run("pair respects both inputs", func(t *testing.T) {
		t.Parallel()

		h := f()

		a := afelt.FromUint64(10)
		b := afelt.FromUint64(20)
		c := afelt.FromUint64(30)

		require.NotEqual(t, h.Pair(&a, &b), h.Pair(&a, &c))
		require.NotEqual(t, h.Pair(&a, &b), h.Pair(&c, &b))
	})

	t.Run("pair does not modify inputs", func(t *testing.T) {
		t.Parallel()

		h := f()

		a := afelt.FromUint64(7)
		b := afelt.FromUint64(8)
		origA, origB := a, b

		_ = h.Pair(&a, &b)
		require.Equal(t, origA, a)
		require.Equal(t, origB, b)
	})

	t.Run("fold is left to right", func(t *testing.T) {
		t.Parallel()

		h := f()

		a := afelt.FromUint64(1)
		b := afelt.FromUint64(2)
		c := afelt.FromUint64(3)
		d := afelt.FromUint64(4)

		ab := h.Pair(&a, &b)
		abc := h.Pair(&ab, &c)
		exp := h.Pair(&abc, &d)

		require.Equal(t, exp, ahash.Fold(h, a, b, c, d))
	})
}
