package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// ItemHash derives the canonical identity of a feed item from its title and
// URL: the first 16 hex chars of SHA-256(title || url). Truncating to 64 bits
// is a deliberate trade-off; birthday collisions only become plausible at
// item counts far beyond what a feed universe produces.
func ItemHash(title, url string) string {
	sum := sha256.Sum256([]byte(title + url))
	return hex.EncodeToString(sum[:])[:16]
}
