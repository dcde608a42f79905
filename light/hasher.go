package light

import (
	tmbytes "github.com/corvuschain/corvus-light/libs/bytes"
	"github.com/corvuschain/corvus-light/types"
)

// Hasher computes the digest a header is identified by. Two blocks at the
// same height belong to the same chain iff their header digests agree.
//
// It is a capability rather than a method call so that tests can substitute
// a toy hash.
type Hasher interface {
	HashHeader(h *types.Header) tmbytes.HexBytes
}

type headerHasher struct{}

func (headerHasher) HashHeader(h *types.Header) tmbytes.HexBytes { return h.Hash() }

// DefaultHasher hashes headers with the canonical consensus encoding
// (SHA-256 over the Merkle root of the header fields).
var DefaultHasher Hasher = headerHasher{}
