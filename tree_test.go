package hashtree_test

import (
	"hash/fnv"
	"testing"

	"github.com/gordian-engine/hashtree"
	"github.com/gordian-engine/hashtree/hthash/htsha256"
	"github.com/gordian-engine/hashtree/internal/dtest"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"
)

// All the "_simplified_" tests in this file use the fnv32Hasher,
// which keeps the expected digests easy to follow.
// The proof tests exercise the real hashers.

func TestBuild_emptyInput(t *testing.T) {
	t.Parallel()

	tree, err := hashtree.Build(nil, hashtree.BuildConfig{Hasher: fnv32Hasher{}})
	require.ErrorIs(t, err, hashtree.ErrEmptyInput)
	require.Nil(t, tree)

	_, err = hashtree.Build([]hashtree.Digest{}, hashtree.BuildConfig{Hasher: fnv32Hasher{}})
	require.ErrorIs(t, err, hashtree.ErrEmptyInput)
}

func TestBuild_wrongDigestSize(t *testing.T) {
	t.Parallel()

	leaves := []hashtree.Digest{
		fnv32Hash("zero"),
		[]byte("too long"),
	}

	_, err := hashtree.Build(leaves, hashtree.BuildConfig{Hasher: fnv32Hasher{}})

	var sizeErr hashtree.DigestSizeError
	require.ErrorAs(t, err, &sizeErr)
	require.Equal(t, hashtree.DigestSizeError{Index: 1, Got: 8, Want: 4}, sizeErr)
}

func TestBuild_nilHasherPanics(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		_, _ = hashtree.Build([]hashtree.Digest{fnv32Hash("x")}, hashtree.BuildConfig{})
	})
}

func TestTree_RootHash_emptyTree(t *testing.T) {
	t.Parallel()

	var zero hashtree.Tree
	_, err := zero.RootHash()
	require.ErrorIs(t, err, hashtree.ErrEmptyTree)

	var nilTree *hashtree.Tree
	_, err = nilTree.RootHash()
	require.ErrorIs(t, err, hashtree.ErrEmptyTree)
}

func TestTree_emptyTreeErrorsAreConsistent(t *testing.T) {
	t.Parallel()

	leaf := fnv32Hash("x")
	for name, tree := range map[string]*hashtree.Tree{
		"zero": new(hashtree.Tree),
		"nil":  nil,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := tree.Proof(leaf)
			require.ErrorIs(t, err, hashtree.ErrEmptyTree)

			_, err = tree.ProofAt(0)
			require.ErrorIs(t, err, hashtree.ErrEmptyTree)

			require.NotPanics(t, func() {
				_, err = tree.WithLeaves(leaf)
			})
			require.ErrorIs(t, err, hashtree.ErrEmptyTree)
		})
	}
}

func TestBuild_simplified_1_leaf(t *testing.T) {
	t.Parallel()

	leaf := fnv32Hash("only")
	tree := mustBuild(t, []hashtree.Digest{leaf}, hashtree.DuplicateOdd)

	require.Equal(t, 1, tree.Len())
	require.Equal(t, 1, tree.Height())

	root, err := tree.RootHash()
	require.NoError(t, err)
	require.Equal(t, leaf, root)
}

func TestBuild_simplified_2_leaves(t *testing.T) {
	t.Parallel()

	leaves := fnv32Leaves("hello", "world")
	tree := mustBuild(t, leaves, hashtree.DuplicateOdd)

	require.Equal(t, 2, tree.Height())

	expRoot := fnv32Combine(leaves[0], leaves[1])
	requireRoot(t, expRoot, tree)
}

func TestBuild_simplified_3_leaves(t *testing.T) {
	t.Parallel()

	leaves := fnv32Leaves("zero", "one", "two")

	/* Tree structure, duplicating the odd node:

	0122
	01 22
	0 1 2 (2)

	*/

	tree := mustBuild(t, leaves, hashtree.DuplicateOdd)

	expNode01 := fnv32Combine(leaves[0], leaves[1])
	expNode22 := fnv32Combine(leaves[2], leaves[2])
	expRoot := fnv32Combine(expNode01, expNode22)

	requireRoot(t, expRoot, tree)
	require.Equal(t, []hashtree.Digest{expNode01, expNode22}, tree.Level(1))
}

func TestBuild_simplified_3_leaves_promote(t *testing.T) {
	t.Parallel()

	leaves := fnv32Leaves("zero", "one", "two")

	/* Tree structure, promoting the odd node:

	012
	01 2
	0 1 2

	*/

	tree := mustBuild(t, leaves, hashtree.PromoteOdd)

	expNode01 := fnv32Combine(leaves[0], leaves[1])
	expRoot := fnv32Combine(expNode01, leaves[2])

	requireRoot(t, expRoot, tree)
	require.Equal(t, []hashtree.Digest{expNode01, leaves[2]}, tree.Level(1))
}

func TestBuild_simplified_5_leaves(t *testing.T) {
	t.Parallel()

	leaves := fnv32Leaves("zero", "one", "two", "three", "four")

	/* Tree structure, duplicating odd nodes:

	01234444
	0123 4444
	01 23 44 (44)
	0 1 2 3 4 (4)

	*/

	tree := mustBuild(t, leaves, hashtree.DuplicateOdd)
	require.Equal(t, 4, tree.Height())

	expNode01 := fnv32Combine(leaves[0], leaves[1])
	expNode23 := fnv32Combine(leaves[2], leaves[3])
	expNode44 := fnv32Combine(leaves[4], leaves[4])

	expNode0123 := fnv32Combine(expNode01, expNode23)
	expNode4444 := fnv32Combine(expNode44, expNode44)

	expRoot := fnv32Combine(expNode0123, expNode4444)
	requireRoot(t, expRoot, tree)
}

func TestBuild_simplified_5_leaves_promote(t *testing.T) {
	t.Parallel()

	leaves := fnv32Leaves("zero", "one", "two", "three", "four")

	/* Tree structure, promoting odd nodes:

	01234
	0123 4
	01 23 4
	0 1 2 3 4

	*/

	tree := mustBuild(t, leaves, hashtree.PromoteOdd)
	require.Equal(t, 4, tree.Height())

	expNode01 := fnv32Combine(leaves[0], leaves[1])
	expNode23 := fnv32Combine(leaves[2], leaves[3])
	expNode0123 := fnv32Combine(expNode01, expNode23)

	expRoot := fnv32Combine(expNode0123, leaves[4])
	requireRoot(t, expRoot, tree)

	require.Equal(t, []hashtree.Digest{expNode0123, leaves[4]}, tree.Level(2))
}

func TestBuild_levelWidths(t *testing.T) {
	t.Parallel()

	for _, odd := range []hashtree.OddPolicy{hashtree.DuplicateOdd, hashtree.PromoteOdd} {
		for n := 1; n <= 70; n++ {
			leaves := dtest.RandomLeavesForTest(t, fnv32Hasher{}, n)
			tree := mustBuild(t, leaves, odd)

			require.Equal(t, n, tree.Len())

			prevWidth := n
			for k := 1; k < tree.Height(); k++ {
				w := len(tree.Level(k))
				require.Equalf(t, (prevWidth+1)/2, w, "n=%d level=%d policy=%s", n, k, odd)
				prevWidth = w
			}
			require.Equal(t, 1, prevWidth)
		}
	}
}

func TestBuild_deterministic(t *testing.T) {
	t.Parallel()

	var h htsha256.Hasher
	leaves := dtest.RandomLeavesForTest(t, h, 13)

	cfg := hashtree.BuildConfig{Hasher: h}
	t1, err := hashtree.Build(leaves, cfg)
	require.NoError(t, err)
	t2, err := hashtree.Build(leaves, cfg)
	require.NoError(t, err)

	r1, err := t1.RootHash()
	require.NoError(t, err)
	r2, err := t2.RootHash()
	require.NoError(t, err)
	require.Equal(t, r1, r2)

	// Order matters.
	swapped := append([]hashtree.Digest(nil), leaves...)
	swapped[0], swapped[1] = swapped[1], swapped[0]
	t3, err := hashtree.Build(swapped, cfg)
	require.NoError(t, err)
	r3, err := t3.RootHash()
	require.NoError(t, err)
	require.NotEqual(t, r1, r3)
}

func TestBuild_policiesDiffer(t *testing.T) {
	t.Parallel()

	leaves := fnv32Leaves("a", "b", "c")

	dup := mustBuild(t, leaves, hashtree.DuplicateOdd)
	pro := mustBuild(t, leaves, hashtree.PromoteOdd)

	dupRoot, err := dup.RootHash()
	require.NoError(t, err)
	proRoot, err := pro.RootHash()
	require.NoError(t, err)

	require.NotEqual(t, dupRoot, proRoot)

	// Powers of two have no odd levels, so the policies agree.
	leaves = fnv32Leaves("a", "b", "c", "d")
	dupRoot, _ = mustBuild(t, leaves, hashtree.DuplicateOdd).RootHash()
	proRoot, _ = mustBuild(t, leaves, hashtree.PromoteOdd).RootHash()
	require.Equal(t, dupRoot, proRoot)
}

func TestTree_immutable(t *testing.T) {
	t.Parallel()

	leaves := fnv32Leaves("zero", "one", "two")
	tree := mustBuild(t, leaves, hashtree.DuplicateOdd)

	origRoot, err := tree.RootHash()
	require.NoError(t, err)

	// Modifying the caller's leaves does not affect the tree.
	leaves[0][0] ^= 0xff
	root, err := tree.RootHash()
	require.NoError(t, err)
	require.Equal(t, origRoot, root)

	// Nor does modifying any returned value.
	root[0] ^= 0xff
	tree.Leaf(1)[0] ^= 0xff
	tree.Level(1)[0][0] ^= 0xff

	again, err := tree.RootHash()
	require.NoError(t, err)
	require.Equal(t, origRoot, again)
	require.Equal(t, fnv32Hash("one"), tree.Leaf(1))
}

func TestTree_IndexOf(t *testing.T) {
	t.Parallel()

	leaves := fnv32Leaves("a", "b", "a", "c")
	tree := mustBuild(t, leaves, hashtree.DuplicateOdd)

	idx, ok := tree.IndexOf(fnv32Hash("a"))
	require.True(t, ok)
	require.Zero(t, idx)

	idx, ok = tree.IndexOf(fnv32Hash("c"))
	require.True(t, ok)
	require.Equal(t, 3, idx)

	_, ok = tree.IndexOf(fnv32Hash("missing"))
	require.False(t, ok)
}

func TestTree_WithLeaves(t *testing.T) {
	t.Parallel()

	leaves := fnv32Leaves("zero", "one", "two")
	tree := mustBuild(t, leaves, hashtree.PromoteOdd)
	origRoot, err := tree.RootHash()
	require.NoError(t, err)

	extended, err := tree.WithLeaves(fnv32Hash("three"), fnv32Hash("four"))
	require.NoError(t, err)

	// The original is untouched.
	require.Equal(t, 3, tree.Len())
	root, err := tree.RootHash()
	require.NoError(t, err)
	require.Equal(t, origRoot, root)

	// The extension matches a fresh build with the same policy.
	require.Equal(t, hashtree.PromoteOdd, extended.OddNodes())
	expected := mustBuild(t, fnv32Leaves("zero", "one", "two", "three", "four"), hashtree.PromoteOdd)
	expRoot, err := expected.RootHash()
	require.NoError(t, err)
	extRoot, err := extended.RootHash()
	require.NoError(t, err)
	require.Equal(t, expRoot, extRoot)

	_, err = tree.WithLeaves([]byte("bad"))
	var sizeErr hashtree.DigestSizeError
	require.ErrorAs(t, err, &sizeErr)
	require.Equal(t, 3, sizeErr.Index)
}

func TestBuild_logsWithLogger(t *testing.T) {
	t.Parallel()

	leaves := dtest.RandomLeavesForTest(t, htsha256.Hasher{}, 9)
	tree, err := hashtree.Build(leaves, hashtree.BuildConfig{
		Hasher: htsha256.Hasher{},
		Log:    slogt.New(t),
	})
	require.NoError(t, err)

	_, err = tree.WithLeaves(leaves[0])
	require.NoError(t, err)
}

func TestParseOddPolicy(t *testing.T) {
	t.Parallel()

	for _, p := range []hashtree.OddPolicy{hashtree.DuplicateOdd, hashtree.PromoteOdd} {
		got, err := hashtree.ParseOddPolicy(p.String())
		require.NoError(t, err)
		require.Equal(t, p, got)
	}

	got, err := hashtree.ParseOddPolicy("")
	require.NoError(t, err)
	require.Equal(t, hashtree.DuplicateOdd, got)

	_, err = hashtree.ParseOddPolicy("carry")
	require.Error(t, err)
}

func mustBuild(t *testing.T, leaves []hashtree.Digest, odd hashtree.OddPolicy) *hashtree.Tree {
	t.Helper()

	tree, err := hashtree.Build(leaves, hashtree.BuildConfig{
		Hasher:   fnv32Hasher{},
		OddNodes: odd,
	})
	require.NoError(t, err)
	return tree
}

func requireRoot(t *testing.T, exp []byte, tree *hashtree.Tree) {
	t.Helper()

	root, err := tree.RootHash()
	require.NoError(t, err)
	require.Equal(t, hashtree.Digest(exp), root)
}

// fnv32Hash is a convenience function to hash a string.
func fnv32Hash(in string) hashtree.Digest {
	return fnv32Hasher{}.Hash([]byte(in), nil)
}

func fnv32Leaves(in ...string) []hashtree.Digest {
	out := make([]hashtree.Digest, len(in))
	for i, s := range in {
		out[i] = fnv32Hash(s)
	}
	return out
}

func fnv32Combine(left, right []byte) hashtree.Digest {
	return fnv32Hasher{}.Combine(left, right, nil)
}

// fnv32Hasher is a simple, test-only hasher implementation.
// It is not suitable for production because it uses a non-cryptographic hash,
// but its short digests keep test assertions easy to follow.
type fnv32Hasher struct{}

func (fnv32Hasher) Size() int { return 4 }

func (fnv32Hasher) Hash(in, dst []byte) []byte {
	h := fnv.New32()
	_, _ = h.Write(in)
	return h.Sum(dst)
}

func (fnv32Hasher) Combine(left, right, dst []byte) []byte {
	h := fnv.New32()
	_, _ = h.Write(left)
	_, _ = h.Write(right)
	return h.Sum(dst)
}
