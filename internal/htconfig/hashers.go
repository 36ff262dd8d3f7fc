package htconfig

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gordian-engine/hashtree/hthash"
	"github.com/gordian-engine/hashtree/hthash/htblake3"
	"github.com/gordian-engine/hashtree/hthash/htsha256"
	"github.com/gordian-engine/hashtree/hthash/htsha3"
)

var hashers = map[string]hthash.Combiner{
	"sha256":    htsha256.Hasher{},
	"sha3-256":  htsha3.SHA256{},
	"sha3-512":  htsha3.SHA512{},
	"keccak256": htsha3.Keccak256{},
	"blake3":    htblake3.Hasher{},
}

// HasherNames returns the sorted names accepted by [HasherByName].
func HasherNames() []string {
	names := make([]string, 0, len(hashers))
	for n := range hashers {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// HasherByName returns the hasher registered under name.
// Matching is case-insensitive.
func HasherByName(name string) (hthash.Hasher, error) {
	return lookup(name)
}

func lookup(name string) (hthash.Combiner, error) {
	h, ok := hashers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf(
			"unknown hasher %q (choose from %s)",
			name, strings.Join(HasherNames(), ", "),
		)
	}
	return h, nil
}
