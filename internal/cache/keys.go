package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Key derives the cache key for a registry query. The key is a pure function
// of the source tag and the normalized query, so it is stable across process
// restarts and safe to share between instances through the L2 store.
func Key(sourceTag, query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	sum := sha256.Sum256([]byte(sourceTag + ":" + normalized))
	return hex.EncodeToString(sum[:])
}
