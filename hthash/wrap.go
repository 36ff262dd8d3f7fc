package hthash

import "bytes"

// SortedPairs returns a Hasher whose Combine is insensitive to argument order:
// the lexicographically larger digest is always written first.
// Hash is delegated to h unchanged.
//
// Trees built with a sorted hasher still produce proofs with sides,
// but the sides have no effect on verification.
func SortedPairs(h Hasher) Hasher {
	return sortedPairs{h: h}
}

type sortedPairs struct {
	h Hasher
}

func (s sortedPairs) Size() int { return s.h.Size() }

func (s sortedPairs) Hash(in, dst []byte) []byte { return s.h.Hash(in, dst) }

func (s sortedPairs) Combine(left, right, dst []byte) []byte {
	if bytes.Compare(left, right) <= 0 {
		return s.h.Combine(right, left, dst)
	}
	return s.h.Combine(left, right, dst)
}

// Leaf and node domain separation bytes used by [Prefixed].
const (
	LeafPrefix byte = 0x00
	NodePrefix byte = 0x01
)

// Combiner is implemented by hashers that can hash
// an arbitrary sequence of byte slices as one message.
// [Prefixed] requires it so the prefix byte can be hashed
// without copying the inputs.
type Combiner interface {
	Hasher

	// HashParts appends the digest of the concatenation of parts to dst.
	HashParts(dst []byte, parts ...[]byte) []byte
}

// Prefixed returns a Hasher that writes [LeafPrefix] before leaf data
// and [NodePrefix] before a pair of child digests,
// so that a leaf digest can never be confused with an interior node digest.
func Prefixed(h Combiner) Hasher {
	return prefixed{h: h}
}

type prefixed struct {
	h Combiner
}

var (
	leafPrefix = []byte{LeafPrefix}
	nodePrefix = []byte{NodePrefix}
)

func (p prefixed) Size() int { return p.h.Size() }

func (p prefixed) Hash(in, dst []byte) []byte {
	return p.h.HashParts(dst, leafPrefix, in)
}

func (p prefixed) Combine(left, right, dst []byte) []byte {
	return p.h.HashParts(dst, nodePrefix, left, right)
}
