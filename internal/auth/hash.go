package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrSecretMismatch indicates a supplied secret does not match its hash.
var ErrSecretMismatch = errors.New("secret does not match")

// CredentialHasher is the one-way hash capability used for passwords,
// access codes, and transaction PINs.
type CredentialHasher interface {
	Hash(secret string) (string, error)
	// Verify returns ErrSecretMismatch when the secret does not match.
	Verify(hash, secret string) error
}

// BcryptHasher implements CredentialHasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher with the given cost; values outside the
// bcrypt range fall back to the default cost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns the bcrypt hash of the secret.
func (h *BcryptHasher) Hash(secret string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify compares a stored hash against a plain secret.
func (h *BcryptHasher) Verify(hash, secret string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return ErrSecretMismatch
	}
	return nil
}
