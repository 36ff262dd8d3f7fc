package htsha256_test

import (
	"crypto/sha256"
	"testing"

	"github.com/gordian-engine/hashtree/hthash"
	"github.com/gordian-engine/hashtree/hthash/hthashtest"
	"github.com/gordian-engine/hashtree/hthash/htsha256"
	"github.com/stretchr/testify/require"
)

func TestCompliance(t *testing.T) {
	t.Parallel()

	hthashtest.TestHasherCompliance(t, func() (hthash.Hasher, int) {
		return htsha256.Hasher{}, htsha256.HashSize
	})
}

func TestHasher_matchesStandardLibrary(t *testing.T) {
	t.Parallel()

	var h htsha256.Hasher

	exp := sha256.Sum256([]byte("0"))
	require.Equal(t, exp[:], h.Hash([]byte("0"), nil))

	l := h.Hash([]byte("left"), nil)
	r := h.Hash([]byte("right"), nil)
	expNode := sha256.Sum256(append(append([]byte(nil), l...), r...))
	require.Equal(t, expNode[:], h.Combine(l, r, nil))
}
