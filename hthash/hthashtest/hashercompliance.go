// Package hthashtest contains a compliance suite
// for implementations of [hthash.Hasher].
package hthashtest

import (
	"bytes"
	"testing"

	"github.com/gordian-engine/hashtree/hthash"
	"github.com/stretchr/testify/require"
)

// HasherFactory returns a fresh Hasher and the digest size it is expected to produce.
type HasherFactory func() (h hthash.Hasher, hashSize int)

// ComplianceOptions adjusts [TestHasherCompliance]
// for hashers with intentionally different semantics.
type ComplianceOptions struct {
	// OrderInsensitive skips the check that Combine(a, b) != Combine(b, a),
	// for hashers such as [hthash.SortedPairs].
	OrderInsensitive bool
}

// TestHasherCompliance runs the standard Hasher checks against f.
func TestHasherCompliance(t *testing.T, f HasherFactory) {
	TestHasherComplianceWithOptions(t, f, ComplianceOptions{})
}

// TestHasherComplianceWithOptions is [TestHasherCompliance] with options.
func TestHasherComplianceWithOptions(t *testing.T, f HasherFactory, opts ComplianceOptions) {
	t.Run("size matches factory", func(t *testing.T) {
		t.Parallel()

		h, sz := f()
		require.Equal(t, sz, h.Size())
		require.Len(t, h.Hash([]byte("x"), nil), sz)
		require.Len(t, h.Combine(make([]byte, sz), make([]byte, sz), nil), sz)
	})

	t.Run("hash is deterministic", func(t *testing.T) {
		t.Parallel()

		h, sz := f()

		dst01 := h.Hash([]byte("deterministic_data"), make([]byte, 0, sz))
		dst02 := h.Hash([]byte("deterministic_data"), make([]byte, 0, sz))

		require.Equal(t, dst01, dst02)
	})

	t.Run("hash respects input", func(t *testing.T) {
		t.Parallel()

		h, _ := f()

		require.NotEqual(t, h.Hash([]byte{0}, nil), h.Hash([]byte{1}, nil))
		require.NotEqual(t, h.Hash(nil, nil), h.Hash([]byte{0}, nil))
	})

	t.Run("hash appends to dst", func(t *testing.T) {
		t.Parallel()

		h, sz := f()

		prefix := []byte("prefix")
		dst := append([]byte(nil), prefix...)
		out := h.Hash([]byte("hello"), dst)

		require.Len(t, out, len(prefix)+sz)
		require.Equal(t, prefix, out[:len(prefix)])
		require.Equal(t, h.Hash([]byte("hello"), nil), out[len(prefix):])
	})

	t.Run("hash writes in place when dst has capacity", func(t *testing.T) {
		t.Parallel()

		h, sz := f()

		mem := make([]byte, sz)
		out := h.Hash([]byte("in place"), mem[:0])

		require.Equal(t, out, mem)
	})

	t.Run("combine is deterministic", func(t *testing.T) {
		t.Parallel()

		h, _ := f()

		l := h.Hash([]byte("left"), nil)
		r := h.Hash([]byte("right"), nil)

		require.Equal(t, h.Combine(l, r, nil), h.Combine(l, r, nil))
	})

	t.Run("combine respects both inputs", func(t *testing.T) {
		t.Parallel()

		h, _ := f()

		a := h.Hash([]byte("a"), nil)
		b := h.Hash([]byte("b"), nil)
		c := h.Hash([]byte("c"), nil)

		require.NotEqual(t, h.Combine(a, b, nil), h.Combine(a, c, nil))
		require.NotEqual(t, h.Combine(a, b, nil), h.Combine(c, b, nil))
	})

	t.Run("combine order", func(t *testing.T) {
		t.Parallel()

		h, _ := f()

		a := h.Hash([]byte("a"), nil)
		b := h.Hash([]byte("b"), nil)

		if opts.OrderInsensitive {
			require.Equal(t, h.Combine(a, b, nil), h.Combine(b, a, nil))
		} else {
			require.NotEqual(t, h.Combine(a, b, nil), h.Combine(b, a, nil))
		}
	})

	t.Run("combine does not modify inputs", func(t *testing.T) {
		t.Parallel()

		h, _ := f()

		a := h.Hash([]byte("a"), nil)
		b := h.Hash([]byte("b"), nil)
		aCopy := bytes.Clone(a)
		bCopy := bytes.Clone(b)

		_ = h.Combine(a, b, a[:0])
		require.Equal(t, bCopy, b)

		// Writing into a's memory is allowed, since a was passed as dst,
		// but the result must not depend on that aliasing.
		require.Equal(t, h.Combine(aCopy, bCopy, nil), a)
	})
}
