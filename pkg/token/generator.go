// Package token generates and hashes the bearer tokens that gate
// kestrel-server's /restart and /killkillkill admin routes. Operators
// run Generate once to mint an admin token, store Hash(token) in
// config.AdminSection.AdminTokenHash, and hand the raw token to
// whatever calls those routes; admin.gated verifies it with Verify.
package token

import (
	"crypto/rand"
	"encoding/base64"
)

// DefaultLength is the default token length in bytes.
const DefaultLength = 32

// Generate generates a cryptographically secure random admin token.
//
// The returned token is Base64 RawURL encoded for safe URL transmission.
func Generate() (string, error) {
	return GenerateWithLength(DefaultLength)
}

// GenerateWithLength generates a token with the specified byte length.
func GenerateWithLength(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// GenerateBytes generates random bytes.
func GenerateBytes(length int) ([]byte, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return nil, err
	}
	return bytes, nil
}
