// Package dtest contains helpers shared by tests across the module.
package dtest

import (
	"crypto/sha256"
	"math/rand/v2"
	"testing"

	"github.com/gordian-engine/hashtree"
	"github.com/gordian-engine/hashtree/hthash"
)

// RandomDataForTest returns a byte slice of size sz
// containing pseudorandom data, derived from a seed based on the test name.
func RandomDataForTest(t *testing.T, sz int) []byte {
	out := make([]byte, sz)

	if _, err := rngForTest(t).Read(out); err != nil {
		panic(err)
	}

	return out
}

// RandomLeavesForTest returns n distinct leaf digests of h's size,
// derived from pseudorandom data seeded by the test name.
func RandomLeavesForTest(t *testing.T, h hthash.Hasher, n int) []hashtree.Digest {
	rng := rngForTest(t)

	data := make([][]byte, n)
	for i := range data {
		// 16 bytes of randomness makes duplicate leaves practically impossible.
		d := make([]byte, 16)
		if _, err := rng.Read(d); err != nil {
			panic(err)
		}
		data[i] = d
	}

	return hashtree.LeafDigests(h, data...)
}

func rngForTest(t *testing.T) *rand.ChaCha8 {
	// Sha256 happens to be the right size for the chacha8 seed,
	// and this fits well anyway since that means
	// we are not limited by the length of any particular test name.
	seed := sha256.Sum256([]byte(t.Name()))
	return rand.NewChaCha8(seed)
}
