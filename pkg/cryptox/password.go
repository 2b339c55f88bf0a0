package cryptox

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt work factor. Raising it slows brute-force attacks
// at the cost of login latency; bcrypt embeds the cost in the hash so old
// hashes keep verifying after a change.
const HashCost = bcrypt.DefaultCost

// ErrPasswordMismatch is returned by VerifyPassword when the password does
// not match the stored hash, including when the stored hash is malformed.
var ErrPasswordMismatch = errors.New("cryptox: password does not match")

// HashPassword derives a salted bcrypt hash from a plaintext password.
// bcrypt generates a fresh random salt per call, so hashing the same
// password twice yields different encodings.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", fmt.Errorf("cryptox: hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password against a bcrypt hash using
// the salt and cost embedded in the hash. The comparison inside bcrypt is
// constant time. A malformed hash is reported as a mismatch rather than a
// distinct failure so callers cannot tell the two cases apart.
func VerifyPassword(password, encodedHash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}
