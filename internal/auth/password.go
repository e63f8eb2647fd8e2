package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrPasswordMismatch is returned by Verify when the plaintext does not match.
	ErrPasswordMismatch = errors.New("password does not match")
	// ErrEmptyPassword is returned by Hash for an empty plaintext.
	ErrEmptyPassword = errors.New("password must not be empty")
)

// dummyPlaintext only seeds the hash compared for unknown users.
const dummyPlaintext = "not-a-real-password"

// BcryptHasher hashes and verifies passwords with bcrypt.
type BcryptHasher struct {
	cost  int
	dummy []byte
}

// NewBcryptHasher returns a hasher using cost, falling back to
// bcrypt.DefaultCost when cost is outside bcrypt's accepted range.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(dummyPlaintext), cost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &BcryptHasher{cost: cost, dummy: dummy}, nil
}

// Cost reports the bcrypt work factor in use.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

// Verify returns nil when password matches hash and ErrPasswordMismatch when
// it does not. Malformed hashes yield other errors.
func (h *BcryptHasher) Verify(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return fmt.Errorf("bcrypt: %w", err)
}

// Burn performs one comparison against a fixed hash so a lookup miss costs
// about as much as a real verification.
func (h *BcryptHasher) Burn(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}
