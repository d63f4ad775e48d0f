// Package hashid derives short deterministic identifiers from strings.
// Cluster ids are built from a parent id plus its hash so that repeated
// searches over the same catalog item produce the same cluster id.
package hashid

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Length is the number of hex characters in a derived id.
const Length = 8

// Hash returns a short, stable hex digest of s.
func Hash(s string) string {
	sum := blake2b.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:Length]
}
