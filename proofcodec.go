package hashtree

import (
	"encoding"
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/gordian-engine/hashtree/internal/htcodec"
	"github.com/tchajed/marshal"
)

// Bounds applied when decoding untrusted proofs.
const (
	// A tree over any int-indexable leaf count has fewer levels than this.
	MaxProofSteps = 64

	// Larger than any digest produced by the hashers in this module.
	MaxDigestSize = 512
)

var (
	_ encoding.BinaryMarshaler   = Proof{}
	_ encoding.BinaryUnmarshaler = (*Proof)(nil)
)

// MarshalBinary encodes the proof as:
// the step count, the digest size,
// a bitset of sides (a set bit means [SideLeft]),
// and the concatenated sibling digests.
//
// It fails if the steps have inconsistent digest sizes or invalid sides,
// which is only possible for proofs built by [NewProof].
func (p Proof) MarshalBinary() ([]byte, error) {
	n := len(p.steps)

	var hashSize int
	if n > 0 {
		hashSize = len(p.steps[0].Sibling)
	}

	sides := bitset.New(uint(n))
	for i, s := range p.steps {
		if len(s.Sibling) != hashSize {
			return nil, fmt.Errorf(
				"step %d has %d-byte sibling; step 0 has %d bytes",
				i, len(s.Sibling), hashSize,
			)
		}

		switch s.Side {
		case SideLeft:
			sides.Set(uint(i))
		case SideRight:
			// Clear bit.
		default:
			return nil, fmt.Errorf("step %d has invalid side %s", i, s.Side)
		}
	}

	b := make([]byte, 0, 16+8*((n+63)/64)+n*hashSize)
	b = marshal.WriteInt(b, uint64(n))
	b = marshal.WriteInt(b, uint64(hashSize))
	b = htcodec.AppendBitset(b, sides, uint(n))
	for _, s := range p.steps {
		b = marshal.WriteBytes(b, s.Sibling)
	}

	return b, nil
}

// UnmarshalBinary decodes a proof written by [Proof.MarshalBinary],
// replacing the receiver's contents.
// The receiver is only modified on success.
func (p *Proof) UnmarshalBinary(b []byte) error {
	n, b, err := htcodec.ReadInt(b)
	if err != nil {
		return fmt.Errorf("failed to read proof step count: %w", err)
	}
	if n > MaxProofSteps {
		return fmt.Errorf("proof step count %d exceeds maximum %d", n, MaxProofSteps)
	}

	hashSize, b, err := htcodec.ReadInt(b)
	if err != nil {
		return fmt.Errorf("failed to read proof digest size: %w", err)
	}
	if hashSize > MaxDigestSize {
		return fmt.Errorf("proof digest size %d exceeds maximum %d", hashSize, MaxDigestSize)
	}
	if n > 0 && hashSize == 0 {
		return errors.New("proof with steps must have a positive digest size")
	}
	if n == 0 && hashSize != 0 {
		return errors.New("empty proof must have zero digest size")
	}

	sides, b, err := htcodec.ReadBitset(b, uint(n))
	if err != nil {
		return fmt.Errorf("failed to read proof sides: %w", err)
	}

	mem, b, err := htcodec.ReadBytes(b, n*hashSize)
	if err != nil {
		return fmt.Errorf("failed to read proof siblings: %w", err)
	}

	if len(b) != 0 {
		return fmt.Errorf("%d trailing bytes after proof", len(b))
	}

	var steps []ProofStep
	if n > 0 {
		steps = make([]ProofStep, n)
		for i := range steps {
			start := uint64(i) * hashSize
			end := start + hashSize

			side := SideRight
			if sides.Test(uint(i)) {
				side = SideLeft
			}

			steps[i] = ProofStep{
				Sibling: Digest(mem[start:end:end]),
				Side:    side,
			}
		}
	}

	p.steps = steps
	return nil
}
