// Package auth implements account registration, login and the profile
// endpoint on top of bcrypt password hashes and signed session tokens.
package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is bcrypt's input limit.
const MaxPasswordBytes = 72

var ErrEmptyPassword = errors.New("password cannot be empty")

// PasswordHasher produces and checks salted password hashes.
type PasswordHasher interface {
	// Hash returns a new salted hash of password.
	Hash(password string) (string, error)

	// Verify reports whether password matches hash. A malformed hash is
	// simply a mismatch.
	Verify(password, hash string) bool
}

// BcryptHasher implements PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}
	return string(out), nil
}

func (h *BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// hashPool bounds how many bcrypt operations run at once.
type hashPool struct {
	slots chan struct{}
}

func newHashPool(size int) *hashPool {
	if size < 1 {
		size = 1
	}
	return &hashPool{slots: make(chan struct{}, size)}
}

// do runs fn once a slot is free, or gives up when ctx is done.
func (p *hashPool) do(ctx context.Context, fn func()) error {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return oops.Code("AUTH_HASH_CANCELLED").Wrap(ctx.Err())
	}
	defer func() { <-p.slots }()
	fn()
	return nil
}
