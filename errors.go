package hashtree

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned from [Build] when given zero leaves.
var ErrEmptyInput = errors.New("tree must contain at least a single leaf")

// ErrEmptyTree is returned from [*Tree.RootHash] on a tree that holds no levels,
// which only happens for a zero-value Tree not created through [Build].
var ErrEmptyTree = errors.New("tree has no levels")

// ErrLeafNotFound is matched by [LeafNotFoundError] through [errors.Is].
var ErrLeafNotFound = errors.New("leaf not found in tree")

// LeafNotFoundError is returned from [*Tree.Proof]
// if the requested digest is not one of the tree's leaves.
type LeafNotFoundError struct {
	Leaf Digest
}

func (e LeafNotFoundError) Error() string {
	return "leaf " + e.Leaf.String() + " not found in tree"
}

func (e LeafNotFoundError) Is(target error) bool {
	return target == ErrLeafNotFound
}

// DigestSizeError is returned from [Build]
// when a leaf does not have the size produced by the tree's hasher.
type DigestSizeError struct {
	Index     int
	Got, Want int
}

func (e DigestSizeError) Error() string {
	return fmt.Sprintf(
		"leaf %d has size %d; hasher produces %d-byte digests",
		e.Index, e.Got, e.Want,
	)
}

// IndexOutOfRangeError is returned from [*Tree.ProofAt]
// when the index does not refer to a leaf.
type IndexOutOfRangeError struct {
	Index, Len int
}

func (e IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("leaf index %d out of range [0, %d)", e.Index, e.Len)
}

// RootMismatchError is returned from [ReadTree]
// when the tree rebuilt from the stored leaves
// does not have the stored root.
type RootMismatchError struct {
	Stored, Rebuilt Digest
}

func (e RootMismatchError) Error() string {
	return "stored root " + e.Stored.String() +
		" does not match rebuilt root " + e.Rebuilt.String()
}
