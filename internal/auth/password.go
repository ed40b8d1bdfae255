// Package auth holds the credential primitives: password hashing, signed
// bearer tokens, and the ownership policies used by the services.
package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher wraps bcrypt with a fixed cost factor set at construction.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	return &PasswordHasher{cost: cost}
}

// Hash returns a salted, algorithm-tagged digest of the plaintext. The
// plaintext is never stored or logged.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches the stored digest. Malformed
// digests verify as false rather than erroring out; callers only ever need
// the yes/no answer.
func (h *PasswordHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
