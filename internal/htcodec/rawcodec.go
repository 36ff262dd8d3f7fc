// Package htcodec contains the low-level binary codecs
// shared by the proof and tree file encodings.
//
// All integers are written with github.com/tchajed/marshal
// as 8-byte little-endian values.
package htcodec

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/tchajed/marshal"
)

// ErrTruncated is returned when an encoding ends before all expected fields.
var ErrTruncated = errors.New("encoding truncated")

// AppendBitset appends the words backing the first n bits of bs to b.
// Bits at or beyond n must be clear.
func AppendBitset(b []byte, bs *bitset.BitSet, n uint) []byte {
	words := bs.Words()
	nWords := wordsNeeded(n)
	if len(words) < nWords {
		// The bitset was never grown to n bits,
		// so the missing words are all zero.
		for _, w := range words {
			b = marshal.WriteInt(b, w)
		}
		for range nWords - len(words) {
			b = marshal.WriteInt(b, 0)
		}
		return b
	}

	for _, w := range words[:nWords] {
		b = marshal.WriteInt(b, w)
	}
	return b
}

// ReadBitset reads a bitset of n bits, as written by [AppendBitset],
// from the front of b.
// It returns the bitset and the remaining bytes of b.
//
// Encodings that set bits at or beyond n are rejected,
// so that every bitset has exactly one valid encoding.
func ReadBitset(b []byte, n uint) (*bitset.BitSet, []byte, error) {
	nWords := wordsNeeded(n)
	if len(b) < 8*nWords {
		return nil, nil, fmt.Errorf(
			"need %d bytes for %d-bit set, have %d: %w",
			8*nWords, n, len(b), ErrTruncated,
		)
	}

	words := make([]uint64, nWords)
	for i := range words {
		words[i], b = marshal.ReadInt(b)
	}

	if tail := n % 64; tail != 0 && nWords > 0 {
		if words[nWords-1]>>tail != 0 {
			return nil, nil, fmt.Errorf(
				"bitset has bits set beyond length %d", n,
			)
		}
	}

	bs := bitset.From(words)
	return bs, b, nil
}

// ReadInt reads one marshal integer from the front of b.
func ReadInt(b []byte) (uint64, []byte, error) {
	if len(b) < 8 {
		return 0, nil, ErrTruncated
	}
	v, rem := marshal.ReadInt(b)
	return v, rem, nil
}

// ReadBytes reads exactly n bytes from the front of b.
// The returned slice is a copy and does not alias b.
func ReadBytes(b []byte, n uint64) ([]byte, []byte, error) {
	if uint64(len(b)) < n {
		return nil, nil, fmt.Errorf(
			"need %d bytes, have %d: %w", n, len(b), ErrTruncated,
		)
	}
	out, rem := marshal.ReadBytesCopy(b, n)
	return out, rem, nil
}

func wordsNeeded(n uint) int {
	return int((n + 63) / 64)
}
