// Package credential hashes and verifies user passwords with Argon2id: a
// random salt per password, a constant-time comparison on verify, and the
// hash/salt stored in model.User's separate password_hash/password_salt
// columns.
package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters, OWASP's 2024 baseline for an interactive login path.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 2
	argonKeyLen  = 32
	saltLen      = 16
)

// ErrEmptyPassword is returned by Hash and Verify for a zero-length password.
var ErrEmptyPassword = errors.New("credential: password cannot be empty")

// Hash derives a fresh random salt and an Argon2id digest of password.
// It returns the digest and salt as separate base64 strings, the shape
// model.User.PasswordHash/PasswordSalt expects.
func Hash(password string) (hash, salt string, err error) {
	if password == "" {
		return "", "", ErrEmptyPassword
	}

	saltBytes := make([]byte, saltLen)
	if _, err := rand.Read(saltBytes); err != nil {
		return "", "", fmt.Errorf("credential: generate salt: %w", err)
	}

	digest := argon2.IDKey([]byte(password), saltBytes, argonTime, argonMemory, argonThreads, argonKeyLen)
	return base64.RawStdEncoding.EncodeToString(digest), base64.RawStdEncoding.EncodeToString(saltBytes), nil
}

// Verify recomputes the Argon2id digest over password and salt and compares
// it to hash in constant time.
func Verify(password, hash, salt string) (bool, error) {
	if password == "" {
		return false, ErrEmptyPassword
	}
	saltBytes, err := base64.RawStdEncoding.DecodeString(salt)
	if err != nil {
		return false, fmt.Errorf("credential: decode salt: %w", err)
	}
	wantBytes, err := base64.RawStdEncoding.DecodeString(hash)
	if err != nil {
		return false, fmt.Errorf("credential: decode hash: %w", err)
	}

	got := argon2.IDKey([]byte(password), saltBytes, argonTime, argonMemory, argonThreads, uint32(len(wantBytes)))
	return subtle.ConstantTimeCompare(got, wantBytes) == 1, nil
}
