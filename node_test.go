package allotree_test

import (
	"testing"

	"github.com/gordian-engine/allotree"
	"github.com/gordian-engine/allotree/afelt"
	"github.com/gordian-engine/allotree/ahash"
	"github.com/gordian-engine/allotree/ahash/ahashtest"
	"github.com/gordian-engine/allotree/ahash/apedersen"
	"github.com/gordian-engine/allotree/arecord"
	"github.com/stretchr/testify/require"
)

var (
	recA = arecord.Record{
		Address:   "0x1234567890abcdef1234567890abcdef12345678",
		Amount:    150,
		Timestamp: "0x2",
		ID:        1,
	}
	recB = arecord.Record{
		Address:   "0xabcdefabcdefabcdefabcdefabcdefabcdef1234",
		Amount:    200,
		Timestamp: "0x3",
		ID:        2,
	}
	recC = arecord.Record{
		Address:   "0x892cdefabcdefabcdefabcdefabcdefabcdef1234",
		Amount:    200,
		Timestamp: "0x3",
		ID:        2,
	}
)

func TestNewLeaf(t *testing.T) {
	t.Parallel()

	h := apedersen.Hasher{}
	n, err := allotree.NewLeaf(h, recA)
	require.NoError(t, err)

	require.True(t, n.IsLeaf())
	require.Nil(t, n.Left())
	require.Nil(t, n.Right())
	require.Equal(t, 1, n.AccessibleLen())
	require.True(t, n.Contains(recA))
	require.False(t, n.Contains(recB))

	f, err := arecord.Canonicalize(recA)
	require.NoError(t, err)

	// Fold order is address, amount, timestamp, id.
	aa := h.Pair(&f.Address, &f.Amount)
	aat := h.Pair(&aa, &f.Timestamp)
	exp := h.Pair(&aat, &f.ID)
	require.Equal(t, exp, n.Value())
	require.Equal(t, exp, allotree.LeafValue(h, f))
}

func TestNewLeaf_invalid(t *testing.T) {
	t.Parallel()

	bad := recA
	bad.Address = "0x1234567dhiodhaoo"

	_, err := allotree.NewLeaf(apedersen.Hasher{}, bad)
	var addrErr arecord.InvalidAddressError
	require.ErrorAs(t, err, &addrErr)
}

func TestCombine(t *testing.T) {
	t.Parallel()

	h := apedersen.Hasher{}

	a, err := allotree.NewLeaf(h, recA)
	require.NoError(t, err)
	b, err := allotree.NewLeaf(h, recB)
	require.NoError(t, err)

	av, bv := a.Value(), b.Value()

	parent := allotree.Combine(h, a, b)
	require.False(t, parent.IsLeaf())
	require.Equal(t, 2, parent.AccessibleLen())
	require.True(t, parent.Contains(recA))
	require.True(t, parent.Contains(recB))

	lv, rv := parent.Left().Value(), parent.Right().Value()
	require.True(t, afelt.Less(&lv, &rv))

	if afelt.Less(&av, &bv) {
		require.Equal(t, h.Pair(&av, &bv), parent.Value())
	} else {
		require.Equal(t, h.Pair(&bv, &av), parent.Value())
	}
}

func TestCombine_commutative(t *testing.T) {
	t.Parallel()

	for name, h := range map[string]ahash.Hasher{
		"pedersen": apedersen.Hasher{},
		"fnv":      ahashtest.FNVHasher{},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			a, err := allotree.NewLeaf(h, recA)
			require.NoError(t, err)
			b, err := allotree.NewLeaf(h, recB)
			require.NoError(t, err)

			ab := allotree.Combine(h, a.Clone(), b.Clone())
			ba := allotree.Combine(h, b.Clone(), a.Clone())

			require.Equal(t, ab.Value(), ba.Value())
			require.Equal(t, ab.AccessibleLen(), ba.AccessibleLen())
			require.True(t, ba.Contains(recA))
			require.True(t, ba.Contains(recB))

			// Same canonical layout regardless of argument order.
			require.Equal(t, ab.Left().Value(), ba.Left().Value())
			require.Equal(t, ab.Right().Value(), ba.Right().Value())
		})
	}
}

func TestCombine_selfPair(t *testing.T) {
	t.Parallel()

	h := apedersen.Hasher{}
	a, err := allotree.NewLeaf(h, recA)
	require.NoError(t, err)

	v := a.Value()
	parent := allotree.Combine(h, a, a.Clone())
	require.Equal(t, h.Pair(&v, &v), parent.Value())
	require.Equal(t, 1, parent.AccessibleLen())
}

func TestNode_Clone(t *testing.T) {
	t.Parallel()

	h := ahashtest.FNVHasher{}
	a, err := allotree.NewLeaf(h, recA)
	require.NoError(t, err)
	b, err := allotree.NewLeaf(h, recB)
	require.NoError(t, err)

	parent := allotree.Combine(h, a, b)
	c := parent.Clone()

	require.Equal(t, parent.Value(), c.Value())
	require.Equal(t, parent.AccessibleLen(), c.AccessibleLen())
	require.NotSame(t, parent.Left(), c.Left())
	require.NotSame(t, parent.Right(), c.Right())
	require.Equal(t, parent.Left().Value(), c.Left().Value())
}
