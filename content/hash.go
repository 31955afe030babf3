package content

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashUserID derives the stable author alias for a Discord user ID.
// The same ID always hashes to the same alias, so reply-author
// denormalization stays consistent across runs.
func HashUserID(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:])
}

// AuthorAlias returns the display alias for a user. Staff members get a
// shortened hash with their configured tag appended, e.g. "a1b2c3d4:MOD".
func AuthorAlias(userID string, staff map[string]string) string {
	alias := HashUserID(userID)
	if tag, ok := staff[userID]; ok && tag != "" {
		return alias[:8] + ":" + tag
	}
	return alias
}
