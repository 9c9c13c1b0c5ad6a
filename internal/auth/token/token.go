// Package token provides random token generation and hashing for
// refresh-token storage. Raw tokens go to the client; only hashes are stored.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// GenerateRandomToken returns a hex-encoded random token of n bytes entropy.
func GenerateRandomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashSHA256 returns the hex SHA-256 digest of a raw token.
func HashSHA256(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
