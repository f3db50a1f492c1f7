package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashKey returns the hex SHA-256 of parts joined by NUL bytes, so
// ("ab", "c") and ("a", "bc") never collide.
func HashKey(parts ...string) string {
	hasher := sha256.New()
	for i, p := range parts {
		if i > 0 {
			hasher.Write([]byte{0})
		}
		hasher.Write([]byte(p))
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
