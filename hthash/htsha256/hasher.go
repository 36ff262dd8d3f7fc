// Package htsha256 provides an [hthash.Hasher] backed by SHA-256,
// using the SIMD-accelerated implementation from minio/sha256-simd.
package htsha256

import (
	"github.com/minio/sha256-simd"
)

const HashSize = sha256.Size

// Hasher is a [hthash.Hasher] backed by SHA256 hashes.
// Combine hashes the plain concatenation of left and right.
type Hasher struct{}

func (Hasher) Size() int { return HashSize }

func (h Hasher) Hash(in, dst []byte) []byte {
	return h.HashParts(dst, in)
}

func (h Hasher) Combine(left, right, dst []byte) []byte {
	return h.HashParts(dst, left, right)
}

// HashParts appends the SHA-256 digest of the concatenated parts to dst.
func (Hasher) HashParts(dst []byte, parts ...[]byte) []byte {
	h := sha256.New()
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	return h.Sum(dst)
}
