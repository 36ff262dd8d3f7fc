package hashtree

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gordian-engine/hashtree/hthash"
)

// OddPolicy decides what happens to the trailing node
// of a level with an odd number of nodes.
type OddPolicy uint8

const (
	// DuplicateOdd pairs the trailing node with itself,
	// so its parent is Combine(last, last).
	DuplicateOdd OddPolicy = iota

	// PromoteOdd carries the trailing node up to the next level unchanged.
	PromoteOdd
)

func (p OddPolicy) String() string {
	switch p {
	case DuplicateOdd:
		return "duplicate"
	case PromoteOdd:
		return "promote"
	default:
		return fmt.Sprintf("OddPolicy(%d)", uint8(p))
	}
}

// ParseOddPolicy is the inverse of [OddPolicy.String].
func ParseOddPolicy(s string) (OddPolicy, error) {
	switch s {
	case "duplicate", "":
		return DuplicateOdd, nil
	case "promote":
		return PromoteOdd, nil
	default:
		return 0, fmt.Errorf("unknown odd node policy %q (want duplicate or promote)", s)
	}
}

// BuildConfig is the configuration used for [Build].
type BuildConfig struct {
	// How to combine pairs of nodes.
	// Leaves are never hashed by the tree,
	// so the leaves may come from a different hasher,
	// as long as the digest sizes match.
	Hasher hthash.Hasher

	// How to handle the trailing node of odd-length levels.
	// The zero value is [DuplicateOdd].
	OddNodes OddPolicy

	// Optional logger for a debug record of the finished tree.
	Log *slog.Logger
}

// Tree is a binary Merkle tree over a fixed sequence of leaf digests.
//
// Create a Tree with [Build].
// A Tree is never modified after Build returns,
// so its methods are safe to call concurrently.
type Tree struct {
	// levels[0] holds the leaves and the final level holds only the root.
	// Every digest is a view into a single backing allocation,
	// except promoted nodes which reuse the view of the node they promote.
	levels [][]Digest

	hasher hthash.Hasher
	odd    OddPolicy

	log *slog.Logger
}

// Build returns a new tree over a copy of leaves.
//
// Build returns [ErrEmptyInput] if there are no leaves,
// and a [DigestSizeError] if any leaf is not exactly cfg.Hasher.Size() bytes.
func Build(leaves []Digest, cfg BuildConfig) (*Tree, error) {
	if cfg.Hasher == nil {
		panic(errors.New("BUG: BuildConfig.Hasher must not be nil"))
	}
	if cfg.OddNodes > PromoteOdd {
		panic(fmt.Errorf("BUG: invalid BuildConfig.OddNodes %d", cfg.OddNodes))
	}

	if len(leaves) == 0 {
		return nil, ErrEmptyInput
	}

	hashSize := cfg.Hasher.Size()
	if hashSize <= 0 {
		panic(fmt.Errorf(
			"BUG: hasher size must be positive (got %d)", hashSize,
		))
	}

	for i, l := range leaves {
		if len(l) != hashSize {
			return nil, DigestSizeError{Index: i, Got: len(l), Want: hashSize}
		}
	}

	// Count the levels and the stored nodes first,
	// so the whole tree is backed by one allocation.
	nLevels := 1
	nNodes := len(leaves)
	for w := len(leaves); w > 1; w = (w + 1) / 2 {
		nLevels++
		nNodes += (w + 1) / 2
		if w&1 == 1 && cfg.OddNodes == PromoteOdd {
			// The promoted node shares memory with its source.
			nNodes--
		}
	}

	mem := make([]byte, nNodes*hashSize)
	off := 0
	next := func() []byte {
		d := mem[off : off : off+hashSize]
		off += hashSize
		return d
	}

	levels := make([][]Digest, nLevels)

	level := make([]Digest, len(leaves))
	for i, l := range leaves {
		level[i] = Digest(append(next(), l...))
	}
	levels[0] = level

	for k := 1; k < nLevels; k++ {
		prev := levels[k-1]
		level = make([]Digest, (len(prev)+1)/2)

		for i := range level {
			left := prev[2*i]

			var right Digest
			if 2*i+1 < len(prev) {
				right = prev[2*i+1]
			} else if cfg.OddNodes == PromoteOdd {
				level[i] = left
				continue
			} else {
				right = left
			}

			d := cfg.Hasher.Combine(left, right, next())
			if len(d) != hashSize {
				panic(fmt.Errorf(
					"BUG: hasher produced %d-byte digest; Size() reported %d",
					len(d), hashSize,
				))
			}
			level[i] = Digest(d)
		}

		levels[k] = level
	}

	t := &Tree{
		levels: levels,
		hasher: cfg.Hasher,
		odd:    cfg.OddNodes,
		log:    cfg.Log,
	}

	if cfg.Log != nil {
		cfg.Log.Debug(
			"Built hash tree",
			"leaves", len(leaves),
			"height", nLevels,
			"odd_nodes", cfg.OddNodes,
			"root", levels[nLevels-1][0].String(),
		)
	}

	return t, nil
}

// RootHash returns a copy of the tree's root digest.
// It returns [ErrEmptyTree] for a tree with no levels.
func (t *Tree) RootHash() (Digest, error) {
	if t == nil || len(t.levels) == 0 {
		return nil, ErrEmptyTree
	}

	top := t.levels[len(t.levels)-1]
	if len(top) != 1 {
		panic(fmt.Errorf(
			"BUG: root level must have exactly one digest (got %d)", len(top),
		))
	}

	return top[0].Clone(), nil
}

// Len returns the number of leaves in the tree.
func (t *Tree) Len() int {
	if t == nil || len(t.levels) == 0 {
		return 0
	}
	return len(t.levels[0])
}

// Height returns the number of levels in the tree,
// including the leaf level and the root level.
// A single-leaf tree has height 1.
func (t *Tree) Height() int {
	if t == nil {
		return 0
	}
	return len(t.levels)
}

// Leaf returns a copy of the leaf at index idx.
func (t *Tree) Leaf(idx int) Digest {
	if idx < 0 || idx >= t.Len() {
		panic(fmt.Errorf(
			"BUG: attempted to get leaf at index %d; must be in range [0, %d)",
			idx, t.Len(),
		))
	}
	return t.levels[0][idx].Clone()
}

// Leaves returns a copy of all the leaves, in order.
func (t *Tree) Leaves() []Digest {
	return t.Level(0)
}

// Level returns a copy of the digests at level k,
// where level 0 is the leaves and level Height()-1 is the root.
func (t *Tree) Level(k int) []Digest {
	if k < 0 || k >= t.Height() {
		panic(fmt.Errorf(
			"BUG: attempted to get level %d; must be in range [0, %d)",
			k, t.Height(),
		))
	}

	src := t.levels[k]
	out := make([]Digest, len(src))
	for i, d := range src {
		out[i] = d.Clone()
	}
	return out
}

// IndexOf returns the index of the first leaf equal to leaf.
func (t *Tree) IndexOf(leaf Digest) (int, bool) {
	if t.Len() == 0 {
		return -1, false
	}
	for i, l := range t.levels[0] {
		if l.Equal(leaf) {
			return i, true
		}
	}
	return -1, false
}

// Hasher returns the hasher used to combine the tree's nodes.
func (t *Tree) Hasher() hthash.Hasher {
	return t.hasher
}

// OddNodes returns the odd node policy the tree was built with.
func (t *Tree) OddNodes() OddPolicy {
	return t.odd
}

// WithLeaves returns a new tree over the current leaves followed by more.
// The receiver is not modified.
//
// A tree not created through [Build] has no hasher to extend with,
// so WithLeaves returns [ErrEmptyTree] for it.
func (t *Tree) WithLeaves(more ...Digest) (*Tree, error) {
	if t == nil || len(t.levels) == 0 {
		return nil, ErrEmptyTree
	}

	leaves := make([]Digest, 0, t.Len()+len(more))
	leaves = append(leaves, t.levels[0]...)
	leaves = append(leaves, more...)

	// Build copies every leaf into its own memory,
	// so sharing the receiver's leaf views here is fine.
	return Build(leaves, BuildConfig{
		Hasher:   t.hasher,
		OddNodes: t.odd,
		Log:      t.log,
	})
}
