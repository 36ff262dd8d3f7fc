// Package htsha3 provides [hthash.Hasher] implementations
// from the SHA-3 family: SHA3-256, SHA3-512, and legacy Keccak-256
// as used by Ethereum.
package htsha3

import (
	"hash"

	"golang.org/x/crypto/sha3"
)

// SHA256 is a [hthash.Hasher] backed by SHA3-256.
type SHA256 struct{}

func (SHA256) Size() int { return 32 }

func (SHA256) Hash(in, dst []byte) []byte {
	return sum(sha3.New256(), dst, in)
}

func (SHA256) Combine(left, right, dst []byte) []byte {
	return sum(sha3.New256(), dst, left, right)
}

func (SHA256) HashParts(dst []byte, parts ...[]byte) []byte {
	return sum(sha3.New256(), dst, parts...)
}

// SHA512 is a [hthash.Hasher] backed by SHA3-512.
type SHA512 struct{}

func (SHA512) Size() int { return 64 }

func (SHA512) Hash(in, dst []byte) []byte {
	return sum(sha3.New512(), dst, in)
}

func (SHA512) Combine(left, right, dst []byte) []byte {
	return sum(sha3.New512(), dst, left, right)
}

func (SHA512) HashParts(dst []byte, parts ...[]byte) []byte {
	return sum(sha3.New512(), dst, parts...)
}

// Keccak256 is a [hthash.Hasher] backed by the legacy Keccak-256 hash,
// which differs from SHA3-256 only in its padding.
type Keccak256 struct{}

func (Keccak256) Size() int { return 32 }

func (Keccak256) Hash(in, dst []byte) []byte {
	return sum(sha3.NewLegacyKeccak256(), dst, in)
}

func (Keccak256) Combine(left, right, dst []byte) []byte {
	return sum(sha3.NewLegacyKeccak256(), dst, left, right)
}

func (Keccak256) HashParts(dst []byte, parts ...[]byte) []byte {
	return sum(sha3.NewLegacyKeccak256(), dst, parts...)
}

func sum(h hash.Hash, dst []byte, parts ...[]byte) []byte {
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	return h.Sum(dst)
}
