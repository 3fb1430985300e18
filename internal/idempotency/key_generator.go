package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Key hashes parts into a fixed-length key. Client-supplied values never
// reach Redis key names verbatim.
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}
