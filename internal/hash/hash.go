// Package hash derives and verifies password hashes with PBKDF2-HMAC-SHA256
// and a per-user random salt.
package hash

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize   = 16
	KeySize    = 32
	Iterations = 100_000
)

// HashPassword returns a fresh hex-encoded salt and the derived key for
// password.
func HashPassword(password string) (salt string, hash string, err error) {
	raw := make([]byte, SaltSize)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), raw, Iterations, KeySize, sha256.New)
	return hex.EncodeToString(raw), hex.EncodeToString(key), nil
}

// CheckPassword recomputes the derived key and compares it in constant time.
func CheckPassword(salt, hash, password string) bool {
	rawSalt, err := hex.DecodeString(salt)
	if err != nil {
		return false
	}
	stored, err := hex.DecodeString(hash)
	if err != nil {
		return false
	}

	key := pbkdf2.Key([]byte(password), rawSalt, Iterations, KeySize, sha256.New)
	return subtle.ConstantTimeCompare(key, stored) == 1
}
