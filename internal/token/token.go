// Package token issues and validates the signed session tokens handed to
// clients after login.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Roles a token may carry.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

var (
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrMalformedToken   = errors.New("token malformed")
	ErrMissingClaims    = errors.New("token claims incomplete")
)

// Claims is the payload of a session token.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// ValidRole reports whether role is one the server understands.
func ValidRole(role string) bool {
	return role == RoleStudent || role == RoleAdmin
}

// Manager signs and verifies HS256 tokens with a single shared secret.
// It is safe for concurrent use.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Manager)

// WithClock replaces time.Now for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(secret []byte, ttl time.Duration, opts ...Option) *Manager {
	m := &Manager{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue signs a token for the given user that expires after the TTL.
func (m *Manager) Issue(userID uint, username, role string) (string, error) {
	if userID == 0 || username == "" || !ValidRole(role) {
		return "", oops.Code("TOKEN_CLAIMS_INCOMPLETE").
			With("user_id", userID).
			With("role", role).
			Wrap(ErrMissingClaims)
	}

	now := m.now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Validate checks the signature and expiry of raw and returns its claims.
// Expired tokens yield ErrTokenExpired, tokens signed with another key
// ErrInvalidSignature, and anything else unparseable ErrMalformedToken.
func (m *Manager) Validate(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, oops.Code("TOKEN_MALFORMED").Wrapf(ErrMalformedToken, "%v", err)
	}

	if claims.UserID == 0 || claims.Username == "" || !ValidRole(claims.Role) {
		return nil, ErrMissingClaims
	}
	return claims, nil
}
