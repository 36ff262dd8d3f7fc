// Package hthash defines the hashing capability consumed by hash trees.
//
// A [Hasher] turns arbitrary bytes into a fixed-size digest,
// and combines two digests into the digest of their parent node.
// Concrete implementations live in subpackages
// (htsha256, htsha3, htblake3),
// so that importing this package does not pull in every hash primitive.
package hthash

// Hasher is the interface for hashing leaves and combining nodes.
//
// To be allocation-efficient, the Hasher implementation
// must append its hash output to dst and return the extended slice,
// instead of creating a new byte slice.
// Hasher must not retain references to the dst slice.
//
// Furthermore, Hasher methods must be safe to call concurrently.
type Hasher interface {
	// Size is the length, in bytes, of every digest produced by the Hasher.
	Size() int

	// Hash appends the digest of in to dst.
	Hash(in, dst []byte) []byte

	// Combine appends the digest of the ordered pair (left, right) to dst.
	// Unless documented otherwise, swapping left and right
	// produces a different digest.
	Combine(left, right, dst []byte) []byte
}
