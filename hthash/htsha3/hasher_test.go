package htsha3_test

import (
	"encoding/hex"
	"testing"

	"github.com/gordian-engine/hashtree/hthash"
	"github.com/gordian-engine/hashtree/hthash/hthashtest"
	"github.com/gordian-engine/hashtree/hthash/htsha3"
	"github.com/stretchr/testify/require"
)

func TestCompliance(t *testing.T) {
	t.Parallel()

	t.Run("SHA3-256", func(t *testing.T) {
		t.Parallel()
		hthashtest.TestHasherCompliance(t, func() (hthash.Hasher, int) {
			return htsha3.SHA256{}, 32
		})
	})

	t.Run("SHA3-512", func(t *testing.T) {
		t.Parallel()
		hthashtest.TestHasherCompliance(t, func() (hthash.Hasher, int) {
			return htsha3.SHA512{}, 64
		})
	})

	t.Run("Keccak-256", func(t *testing.T) {
		t.Parallel()
		hthashtest.TestHasherCompliance(t, func() (hthash.Hasher, int) {
			return htsha3.Keccak256{}, 32
		})
	})
}

func TestKnownAnswers(t *testing.T) {
	t.Parallel()

	// Digests of the empty input.
	require.Equal(
		t,
		"a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a",
		hex.EncodeToString(htsha3.SHA256{}.Hash(nil, nil)),
	)
	require.Equal(
		t,
		"c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		hex.EncodeToString(htsha3.Keccak256{}.Hash(nil, nil)),
	)
}
