// Package token provides token generation and validation utilities.
//
// This package implements cryptographically secure token generation
// and validation, used by the admin surface's optional bearer-token
// gate on /restart and /killkillkill.
//
// Token Format:
//
//   - Base64 RawURL encoded random bytes (DefaultLength bytes for
//     Generate); no prefix is added
//
// Token Hash Format:
//
//   - 64 characters of hex-encoded SHA-256 hash
//
// Security:
//
//   - Uses crypto/rand for CSPRNG
//   - SHA-256 hashing with constant-time comparison
//   - Tokens are never stored, only hashes
package token
