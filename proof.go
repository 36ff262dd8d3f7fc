package hashtree

import (
	"bytes"
	"fmt"

	"github.com/gordian-engine/hashtree/hthash"
)

// Side indicates where a proof sibling is placed
// relative to the running digest during verification.
type Side uint8

const (
	// SideLeft means the sibling is the left input: Combine(sibling, running).
	SideLeft Side = iota + 1

	// SideRight means the sibling is the right input: Combine(running, sibling).
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return fmt.Sprintf("Side(%d)", uint8(s))
	}
}

// ProofStep is one level of an inclusion proof.
type ProofStep struct {
	Sibling Digest
	Side    Side
}

// Proof is an inclusion proof:
// the ordered sibling path from a leaf up to, but excluding, the root.
//
// A Proof is immutable.
// Create one with [*Tree.Proof], [*Tree.ProofAt], [NewProof],
// or by decoding with [*Proof.UnmarshalBinary].
type Proof struct {
	steps []ProofStep
}

// NewProof returns a Proof holding copies of steps.
func NewProof(steps ...ProofStep) Proof {
	if len(steps) == 0 {
		return Proof{}
	}

	out := make([]ProofStep, len(steps))
	for i, s := range steps {
		out[i] = ProofStep{Sibling: s.Sibling.Clone(), Side: s.Side}
	}
	return Proof{steps: out}
}

// Len returns the number of steps in the proof.
func (p Proof) Len() int {
	return len(p.steps)
}

// Step returns a copy of the i'th step, where step 0 is at the leaf level.
func (p Proof) Step(i int) ProofStep {
	s := p.steps[i]
	return ProofStep{Sibling: s.Sibling.Clone(), Side: s.Side}
}

// Steps returns a copy of every step in the proof.
func (p Proof) Steps() []ProofStep {
	if len(p.steps) == 0 {
		return nil
	}
	out := make([]ProofStep, len(p.steps))
	for i := range p.steps {
		out[i] = p.Step(i)
	}
	return out
}

// Equal reports whether p and o have identical steps.
func (p Proof) Equal(o Proof) bool {
	if len(p.steps) != len(o.steps) {
		return false
	}
	for i, s := range p.steps {
		if s.Side != o.steps[i].Side || !s.Sibling.Equal(o.steps[i].Sibling) {
			return false
		}
	}
	return true
}

// Proof returns the inclusion proof for the first leaf equal to leaf.
// If no leaf matches, the returned error is a [LeafNotFoundError],
// or [ErrEmptyTree] if t has no leaves at all.
func (t *Tree) Proof(leaf Digest) (Proof, error) {
	if t == nil || len(t.levels) == 0 {
		return Proof{}, ErrEmptyTree
	}
	idx, ok := t.IndexOf(leaf)
	if !ok {
		return Proof{}, LeafNotFoundError{Leaf: leaf.Clone()}
	}
	return t.ProofAt(idx)
}

// ProofAt returns the inclusion proof for the leaf at index idx.
func (t *Tree) ProofAt(idx int) (Proof, error) {
	if t == nil || len(t.levels) == 0 {
		return Proof{}, ErrEmptyTree
	}
	if idx < 0 || idx >= len(t.levels[0]) {
		return Proof{}, IndexOutOfRangeError{Index: idx, Len: len(t.levels[0])}
	}

	// The root level never contributes a step.
	below := t.levels[:len(t.levels)-1]
	if len(below) == 0 {
		return Proof{}, nil
	}

	hashSize := len(t.levels[0][0])

	// Back every sibling with a single allocation,
	// sized for the longest possible proof.
	mem := make([]byte, 0, len(below)*hashSize)
	steps := make([]ProofStep, 0, len(below))

	for _, level := range below {
		siblingIdx := idx ^ 1

		switch {
		case siblingIdx < len(level):
			side := SideRight
			if siblingIdx < idx {
				side = SideLeft
			}

			start := len(mem)
			mem = append(mem, level[siblingIdx]...)
			steps = append(steps, ProofStep{
				Sibling: Digest(mem[start:len(mem):len(mem)]),
				Side:    side,
			})

		case t.odd == DuplicateOdd:
			// Trailing node of an odd level was combined with itself.
			start := len(mem)
			mem = append(mem, level[idx]...)
			steps = append(steps, ProofStep{
				Sibling: Digest(mem[start:len(mem):len(mem)]),
				Side:    SideRight,
			})

		default:
			// PromoteOdd: the node was carried up without hashing,
			// so there is nothing to combine at this level.
		}

		idx >>= 1
	}

	return Proof{steps: steps}, nil
}

// Root recomputes the root digest implied by p for the given leaf.
//
// Root returns nil if the proof cannot be applied:
// a nil hasher, a leaf or sibling of the wrong size, or an unknown side.
func (p Proof) Root(h hthash.Hasher, leaf Digest) Digest {
	if h == nil {
		return nil
	}

	hashSize := h.Size()
	if len(leaf) != hashSize {
		return nil
	}

	// Alternate between two buffers so the input and output never alias.
	cur := append(make([]byte, 0, hashSize), leaf...)
	next := make([]byte, 0, hashSize)

	for _, s := range p.steps {
		if len(s.Sibling) != hashSize {
			return nil
		}

		switch s.Side {
		case SideLeft:
			next = h.Combine(s.Sibling, cur, next[:0])
		case SideRight:
			next = h.Combine(cur, s.Sibling, next[:0])
		default:
			return nil
		}

		cur, next = next, cur
	}

	return Digest(cur)
}

// Validate reports whether p proves that leaf is included under root.
// It never fails; any malformed input simply returns false.
func (p Proof) Validate(h hthash.Hasher, root, leaf Digest) bool {
	got := p.Root(h, leaf)
	return got != nil && bytes.Equal(got, root)
}

// Validate reports whether proof shows that leaf is included under root,
// using h to combine nodes.
// It is equivalent to proof.Validate(h, root, leaf).
func Validate(h hthash.Hasher, proof Proof, root, leaf Digest) bool {
	return proof.Validate(h, root, leaf)
}
