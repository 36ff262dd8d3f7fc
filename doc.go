// Package hashtree builds binary Merkle trees over a fixed, ordered set of leaf digests,
// and generates and verifies compact inclusion proofs against the tree's root.
//
// Leaves are digests supplied by the caller;
// the tree never hashes raw application data itself.
// Interior nodes are produced by an [hthash.Hasher],
// so the same tree logic works with any digest primitive.
//
// A [Tree] is immutable once built by [Build].
// Trees and [Proof] values may be read concurrently without synchronization.
//
// When a level of the tree has an odd number of nodes,
// the [OddPolicy] in the [BuildConfig] decides whether the trailing node
// is paired with itself ([DuplicateOdd], the default)
// or carried up to the next level unchanged ([PromoteOdd]).
// Proofs always follow the policy of the tree that produced them,
// and verification with [Validate] does not need to know the policy.
package hashtree
