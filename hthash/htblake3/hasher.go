// Package htblake3 provides an [hthash.Hasher] backed by BLAKE3
// with its default 32-byte output.
package htblake3

import "github.com/zeebo/blake3"

const HashSize = 32

type Hasher struct{}

func (Hasher) Size() int { return HashSize }

func (h Hasher) Hash(in, dst []byte) []byte {
	return h.HashParts(dst, in)
}

func (h Hasher) Combine(left, right, dst []byte) []byte {
	return h.HashParts(dst, left, right)
}

func (Hasher) HashParts(dst []byte, parts ...[]byte) []byte {
	h := blake3.New()
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	return h.Sum(dst)
}
