package id

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// LocalPrefix marks ids minted by the offline fallback path so they can be
// told apart from remote-assigned ids.
const LocalPrefix = "local_"

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// NewLocalID returns a locally-unique id carrying the local-origin marker.
func NewLocalID() string {
	return LocalPrefix + NewID32()
}

// IsLocal reports whether the id was minted by the offline fallback path.
func IsLocal(id string) bool {
	return strings.HasPrefix(id, LocalPrefix)
}
