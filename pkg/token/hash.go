package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Hash computes the SHA-256 hash of a token, the form stored in
// config.AdminSection.AdminTokenHash. kestrel-server never persists
// the raw admin token, only this hash.
//
// The returned hash is hex encoded for storage.
func Hash(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// HashBytes computes the SHA-256 hash of bytes.
func HashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Verify checks a bearer token presented to /restart or /killkillkill
// against the configured hash.
//
// Uses constant-time comparison to prevent timing attacks.
func Verify(token, expectedHash string) bool {
	actualHash := Hash(token)
	return subtle.ConstantTimeCompare([]byte(actualHash), []byte(expectedHash)) == 1
}

// VerifyBytes verifies bytes against an expected hash.
func VerifyBytes(data []byte, expectedHash string) bool {
	actualHash := HashBytes(data)
	return subtle.ConstantTimeCompare([]byte(actualHash), []byte(expectedHash)) == 1
}
