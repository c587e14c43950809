package allotree_test

import (
	"fmt"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"github.com/gordian-engine/allotree"
	"github.com/gordian-engine/allotree/afelt"
	"github.com/gordian-engine/allotree/ahash/ahashtest"
	"github.com/gordian-engine/allotree/arecord"
	"github.com/gordian-engine/allotree/internal/atest"
	"github.com/stretchr/testify/require"
)

func TestProve_roundTrip(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 2, 3, 4, 5, 6, 7, 8, 12, 17} {
		t.Run(fmt.Sprintf("%d records", n), func(t *testing.T) {
			t.Parallel()

			recs := atest.RandomRecordsForTest(t, n)
			tree, err := allotree.Build(recs, allotree.BuildConfig{})
			require.NoError(t, err)

			h := tree.Hasher()
			root := tree.RootValue()

			for _, r := range recs {
				p, err := tree.Prove(r)
				require.NoError(t, err)

				require.Equal(t, r, p.Record)
				require.Equal(t, tree.Depth(), p.Depth())

				f, err := arecord.Canonicalize(r)
				require.NoError(t, err)
				require.Equal(t, allotree.LeafValue(h, f), p.Leaf)

				require.NoError(t, allotree.Verify(h, root, p))

				calldata := p.Calldata()
				require.Len(t, calldata, 4+tree.Depth())
				require.NoError(t, allotree.VerifyCalldata(h, root, calldata))
			}
		})
	}
}

func TestProve_tamperedProofFails(t *testing.T) {
	t.Parallel()

	recs := atest.RandomRecordsForTest(t, 6)
	tree, err := allotree.Build(recs, allotree.BuildConfig{})
	require.NoError(t, err)

	h := tree.Hasher()
	root := tree.RootValue()

	calldata, err := tree.Calldata(recs[2].Address, recs[2].Amount, recs[2].Timestamp, recs[2].ID)
	require.NoError(t, err)
	require.NoError(t, allotree.VerifyCalldata(h, root, calldata))

	for i := range calldata {
		tampered := append([]string(nil), calldata...)

		e, err := afelt.ParseHex(tampered[i])
		require.NoError(t, err)
		one := afelt.FromUint64(1)
		e.Add(&e, &one)
		tampered[i] = afelt.Hex(&e)

		require.ErrorIs(t, allotree.VerifyCalldata(h, root, tampered), allotree.ErrProofMismatch, "element %d", i)
	}

	// Dropping or adding a sibling also fails.
	require.ErrorIs(t, allotree.VerifyCalldata(h, root, calldata[:len(calldata)-1]), allotree.ErrProofMismatch)
	require.ErrorIs(t, allotree.VerifyCalldata(h, root, append(calldata, calldata[4])), allotree.ErrProofMismatch)

	// And a different root.
	var otherRoot fp.Element
	otherRoot.Add(&root, &root)
	require.ErrorIs(t, allotree.VerifyCalldata(h, otherRoot, calldata), allotree.ErrProofMismatch)
}

func TestVerifyCalldata_malformed(t *testing.T) {
	t.Parallel()

	tree, err := allotree.Build([]arecord.Record{recA}, allotree.BuildConfig{})
	require.NoError(t, err)

	err = allotree.VerifyCalldata(tree.Hasher(), tree.RootValue(), []string{"0x1", "0x2", "0x3"})
	require.ErrorContains(t, err, "too short")

	err = allotree.VerifyCalldata(tree.Hasher(), tree.RootValue(), []string{"0x1", "0x2", "0x3", "0xq"})
	require.ErrorContains(t, err, "element 3")
}

func TestProve_notFound(t *testing.T) {
	t.Parallel()

	recs := []arecord.Record{
		{Address: "0x123", Amount: 100, Timestamp: "0x1", ID: 1},
		{Address: "0x456", Amount: 200, Timestamp: "0x2", ID: 2},
	}
	tree, err := allotree.Build(recs, allotree.BuildConfig{})
	require.NoError(t, err)
	before := tree.RootValue()

	absent := arecord.Record{Address: "0x789", Amount: 100, Timestamp: "0x1", ID: 1}
	_, err = tree.Prove(absent)

	var nfErr allotree.AllocationNotFoundError
	require.ErrorAs(t, err, &nfErr)
	require.Equal(t, absent, nfErr.Record)

	// Present address, but a different field.
	_, err = tree.Calldata("0x123", 101, "0x1", 1)
	require.ErrorAs(t, err, &nfErr)
	_, err = tree.Calldata("0x123", 100, "0x1", 2)
	require.ErrorAs(t, err, &nfErr)

	require.Equal(t, before, tree.RootValue())
}

func TestProve_rawFieldIdentity(t *testing.T) {
	t.Parallel()

	upper := arecord.Record{Address: "0xABC", Amount: 5, Timestamp: "0xA", ID: 1}
	tree, err := allotree.Build([]arecord.Record{upper, recA}, allotree.BuildConfig{})
	require.NoError(t, err)

	calldata, err := tree.Calldata("0xABC", 5, "0xA", 1)
	require.NoError(t, err)
	require.Equal(t, []string{"0xabc", "0x5", "0xa", "0x1"}, calldata[:4])

	// Same canonical values, but not the same record.
	_, err = tree.Calldata("0xabc", 5, "0xa", 1)
	var nfErr allotree.AllocationNotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestProve_invalidQuery(t *testing.T) {
	t.Parallel()

	tree, err := allotree.Build([]arecord.Record{recA}, allotree.BuildConfig{})
	require.NoError(t, err)

	_, err = tree.Calldata(recA.Address, recA.Amount, "0x2josjojd", recA.ID)
	var tsErr arecord.InvalidTimestampError
	require.ErrorAs(t, err, &tsErr)

	_, err = tree.Calldata("0xnothex", recA.Amount, recA.Timestamp, recA.ID)
	var addrErr arecord.InvalidAddressError
	require.ErrorAs(t, err, &addrErr)

	// Invalid fields are reported even when no such record exists.
	_, err = tree.Calldata("0xnothex", 1, "0x1", 1)
	require.ErrorAs(t, err, &addrErr)
}

func TestProve_duplicateRecords(t *testing.T) {
	t.Parallel()

	recs := []arecord.Record{recA, recB, recA}
	tree, err := allotree.Build(recs, allotree.BuildConfig{})
	require.NoError(t, err)

	p, err := tree.Prove(recA)
	require.NoError(t, err)
	require.NoError(t, allotree.Verify(tree.Hasher(), tree.RootValue(), p))

	p, err = tree.Prove(recB)
	require.NoError(t, err)
	require.NoError(t, allotree.Verify(tree.Hasher(), tree.RootValue(), p))
}

func TestProve_pathLocatesLeaf(t *testing.T) {
	t.Parallel()

	recs := atest.RandomRecordsForTest(t, 11)
	tree, err := allotree.Build(recs, allotree.BuildConfig{Hasher: ahashtest.FNVHasher{}})
	require.NoError(t, err)

	for _, r := range recs {
		p, err := tree.Prove(r)
		require.NoError(t, err)

		// Walk down from the root following the path bits,
		// highest first, and collect siblings along the way.
		cur := tree.Root()
		siblings := make([]fp.Element, p.Depth())
		for height := p.Depth() - 1; height >= 0; height-- {
			if p.Path.Test(uint(height)) {
				siblings[height] = cur.Left().Value()
				cur = cur.Right()
			} else {
				siblings[height] = cur.Right().Value()
				cur = cur.Left()
			}
		}

		require.True(t, cur.IsLeaf())
		require.True(t, cur.Contains(r))
		require.Equal(t, p.Leaf, cur.Value())
		require.Equal(t, p.Siblings, siblings)
	}
}
