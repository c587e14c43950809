package allotree_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/gordian-engine/allotree"
	"github.com/gordian-engine/allotree/afelt"
	"github.com/gordian-engine/allotree/ahash/ahashtest"
	"github.com/gordian-engine/allotree/ahash/apedersen"
	"github.com/gordian-engine/allotree/arecord"
	"github.com/gordian-engine/allotree/internal/atest"
	"github.com/stretchr/testify/require"
)

func TestBuild_empty(t *testing.T) {
	t.Parallel()

	_, err := allotree.Build(nil, allotree.BuildConfig{})
	require.ErrorIs(t, err, allotree.ErrNoAllocations)

	_, err = allotree.Build([]arecord.Record{}, allotree.BuildConfig{})
	require.ErrorIs(t, err, allotree.ErrNoAllocations)
}

func TestBuild_invalidRecordAbortsBuild(t *testing.T) {
	t.Parallel()

	bad := recA
	bad.Address = "0x1234567dhiodhaoo"

	tree, err := allotree.Build([]arecord.Record{recB, bad}, allotree.BuildConfig{})
	require.Nil(t, tree)

	var addrErr arecord.InvalidAddressError
	require.ErrorAs(t, err, &addrErr)
	require.ErrorContains(t, err, "allocation 1")

	badTS := recA
	badTS.Timestamp = "0xzz"
	_, err = allotree.Build([]arecord.Record{badTS}, allotree.BuildConfig{})
	var tsErr arecord.InvalidTimestampError
	require.ErrorAs(t, err, &tsErr)
	require.ErrorContains(t, err, "allocation 0")
}

func TestBuild_defaultsToPedersen(t *testing.T) {
	t.Parallel()

	tree, err := allotree.Build([]arecord.Record{recA, recB}, allotree.BuildConfig{})
	require.NoError(t, err)
	require.Equal(t, apedersen.Hasher{}, tree.Hasher())

	explicit, err := allotree.Build([]arecord.Record{recA, recB}, allotree.BuildConfig{
		Hasher: apedersen.Hasher{},
	})
	require.NoError(t, err)
	require.Equal(t, tree.RootValue(), explicit.RootValue())

	root := tree.RootValue()
	require.False(t, root.IsZero())
}

func TestBuild_singleRecord(t *testing.T) {
	t.Parallel()

	rec := arecord.Record{Address: "0x1", Amount: 150, Timestamp: "0x2", ID: 1}
	tree, err := allotree.Build([]arecord.Record{rec}, allotree.BuildConfig{})
	require.NoError(t, err)

	require.Equal(t, 1, tree.Depth())
	require.Equal(t, 1, tree.Len())

	h := apedersen.Hasher{}
	leaf, err := allotree.NewLeaf(h, rec)
	require.NoError(t, err)
	lv := leaf.Value()
	require.Equal(t, h.Pair(&lv, &lv), tree.RootValue())

	calldata, err := tree.Calldata("0x1", 150, "0x2", 1)
	require.NoError(t, err)
	require.Equal(t, []string{
		"0x1", "0x96", "0x2", "0x1",
		afelt.Hex(&lv),
	}, calldata)
}

func TestBuild_threeRecords(t *testing.T) {
	t.Parallel()

	tree, err := allotree.Build([]arecord.Record{recA, recB, recC}, allotree.BuildConfig{})
	require.NoError(t, err)

	require.Equal(t, 2, tree.Depth())
	require.Equal(t, 3, tree.Len())

	calldata, err := tree.Calldata(recA.Address, recA.Amount, recA.Timestamp, recA.ID)
	require.NoError(t, err)
	require.Len(t, calldata, 6)
	require.Equal(t, recA.Address, calldata[0])

	// One child of the root covers A and B;
	// the other covers C and its padding duplicate.
	root := tree.Root()
	require.ElementsMatch(t,
		[]int{1, 2},
		[]int{root.Left().AccessibleLen(), root.Right().AccessibleLen()},
	)
}

func TestBuild_oddPadding(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 3, 5, 7, 9, 11} {
		t.Run(fmt.Sprintf("%d records", n), func(t *testing.T) {
			t.Parallel()

			recs := atest.RandomRecordsForTest(t, n)

			odd, err := allotree.Build(recs, allotree.BuildConfig{Hasher: ahashtest.FNVHasher{}})
			require.NoError(t, err)

			padded := append(recs[:n:n], recs[n-1])
			even, err := allotree.Build(padded, allotree.BuildConfig{Hasher: ahashtest.FNVHasher{}})
			require.NoError(t, err)

			require.Equal(t, even.RootValue(), odd.RootValue())
			require.Equal(t, even.Depth(), odd.Depth())

			// The retained record list is still the unpadded input.
			require.Equal(t, n, odd.Len())
			require.Equal(t, recs, odd.Allocations())
		})
	}
}

func TestBuild_depth(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		n, depth int
	}{
		{n: 1, depth: 1},
		{n: 2, depth: 1},
		{n: 3, depth: 2},
		{n: 4, depth: 2},
		{n: 5, depth: 3}, // 6 leaves, 3 nodes, padded to 4.
		{n: 6, depth: 3},
		{n: 8, depth: 3},
		{n: 9, depth: 4},
		{n: 17, depth: 5},
	} {
		t.Run(fmt.Sprintf("%d records", tc.n), func(t *testing.T) {
			t.Parallel()

			tree, err := allotree.Build(
				atest.RandomRecordsForTest(t, tc.n),
				allotree.BuildConfig{Hasher: ahashtest.FNVHasher{}},
			)
			require.NoError(t, err)
			require.Equal(t, tc.depth, tree.Depth())
		})
	}
}

func TestBuild_deterministic(t *testing.T) {
	t.Parallel()

	recs := atest.RandomRecordsForTest(t, 13)

	t1, err := allotree.Build(recs, allotree.BuildConfig{})
	require.NoError(t, err)
	t2, err := allotree.Build(recs, allotree.BuildConfig{})
	require.NoError(t, err)

	require.Equal(t, t1.RootValue(), t2.RootValue())
	require.Equal(t, t1.RootHex(), t2.RootHex())

	for _, r := range recs {
		p1, err := t1.Prove(r)
		require.NoError(t, err)
		p2, err := t2.Prove(r)
		require.NoError(t, err)

		require.Equal(t, p1.Calldata(), p2.Calldata())
		require.True(t, p1.Path.Equal(p2.Path))
	}
}

func TestBuild_orderMatters(t *testing.T) {
	t.Parallel()

	// Pairing is commutative within a pair,
	// but which records get paired follows the input order.
	abc, err := allotree.Build([]arecord.Record{recA, recB, recC, recC}, allotree.BuildConfig{})
	require.NoError(t, err)
	acb, err := allotree.Build([]arecord.Record{recA, recC, recB, recC}, allotree.BuildConfig{})
	require.NoError(t, err)

	require.NotEqual(t, abc.RootValue(), acb.RootValue())

	// Swapping within a pair does not change the root.
	bac, err := allotree.Build([]arecord.Record{recB, recA, recC, recC}, allotree.BuildConfig{})
	require.NoError(t, err)
	require.Equal(t, abc.RootValue(), bac.RootValue())
}

func TestTree_Allocations_isCopy(t *testing.T) {
	t.Parallel()

	input := []arecord.Record{recA, recB}
	tree, err := allotree.Build(input, allotree.BuildConfig{})
	require.NoError(t, err)

	input[0] = recC
	got := tree.Allocations()
	require.Equal(t, recA, got[0])

	got[1] = recC
	require.Equal(t, recB, tree.Allocations()[1])
}

func TestTree_rootRendering(t *testing.T) {
	t.Parallel()

	tree, err := allotree.Build([]arecord.Record{recA}, allotree.BuildConfig{})
	require.NoError(t, err)

	root := tree.RootValue()
	require.Equal(t, afelt.Hex(&root), tree.RootHex())
	require.Equal(t, afelt.Decimal(&root), tree.RootDecimal())
	require.Equal(t, root, tree.Root().Value())
}

func TestTree_concurrentProofs(t *testing.T) {
	t.Parallel()

	recs := atest.RandomRecordsForTest(t, 32)
	tree, err := allotree.Build(recs, allotree.BuildConfig{})
	require.NoError(t, err)
	root := tree.RootValue()

	var wg sync.WaitGroup
	errs := make(chan error, len(recs))
	for _, r := range recs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := tree.Prove(r)
			if err == nil {
				err = allotree.Verify(tree.Hasher(), root, p)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
}
