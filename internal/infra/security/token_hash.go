package security

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken fingerprints a refresh token for storage. Sessions are looked up by
// this value, so the raw token never reaches the database.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
