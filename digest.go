package hashtree

import (
	"bytes"
	"encoding/hex"

	"github.com/gordian-engine/hashtree/hthash"
)

// Digest is the fixed-size output of an [hthash.Hasher].
// The size is not encoded in the type;
// a [Tree] enforces that all its digests match its hasher's size.
type Digest []byte

// Equal reports whether d and o are byte-wise identical.
func (d Digest) Equal(o Digest) bool {
	return bytes.Equal(d, o)
}

// Clone returns a copy of d that does not share memory with d.
func (d Digest) Clone() Digest {
	if d == nil {
		return nil
	}
	return Digest(bytes.Clone(d))
}

// String returns the lower-case hex encoding of d.
func (d Digest) String() string {
	return hex.EncodeToString(d)
}

// ParseDigest decodes a hex string as produced by [Digest.String].
func ParseDigest(s string) (Digest, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return Digest(b), nil
}

// LeafDigests hashes each element of data with h,
// producing leaves suitable for [Build].
//
// This is a convenience for callers;
// the tree itself never hashes raw data.
func LeafDigests(h hthash.Hasher, data ...[]byte) []Digest {
	sz := h.Size()

	// One allocation backs every digest, like the tree's own memory.
	mem := make([]byte, len(data)*sz)
	out := make([]Digest, len(data))
	for i, d := range data {
		out[i] = Digest(h.Hash(d, mem[i*sz:i*sz:(i+1)*sz]))
	}
	return out
}
