package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// fakeClock lets a test move time forward between issuing and validating.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestIssueAndValidate(t *testing.T) {
	t.Parallel()

	m := NewManager(testSecret, 24*time.Hour)
	raw, err := m.Issue(7, "alice", RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(raw, "."))

	claims, err := m.Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, RoleStudent, claims.Role)
	assert.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.ExpiresAt)
	require.NotNil(t, claims.IssuedAt)
	assert.Equal(t, 24*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestValidate_Expiry(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: issuedAt}
	m := NewManager(testSecret, 24*time.Hour, WithClock(clock.Now))

	raw, err := m.Issue(1, "alice", RoleStudent)
	require.NoError(t, err)

	clock.t = issuedAt.Add(time.Hour)
	_, err = m.Validate(raw)
	require.NoError(t, err, "token should still be valid one hour later")

	clock.t = issuedAt.Add(25 * time.Hour)
	_, err = m.Validate(raw)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidate_ExactExpiryIsRejected(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: issuedAt}
	m := NewManager(testSecret, time.Hour, WithClock(clock.Now))

	raw, err := m.Issue(1, "alice", RoleStudent)
	require.NoError(t, err)

	clock.t = issuedAt.Add(time.Hour)
	_, err = m.Validate(raw)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidate_WrongSecret(t *testing.T) {
	t.Parallel()

	raw, err := NewManager(testSecret, time.Hour).Issue(1, "alice", RoleAdmin)
	require.NoError(t, err)

	other := NewManager([]byte("ffffffffffffffffffffffffffffffff"), time.Hour)
	_, err = other.Validate(raw)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.False(t, errors.Is(err, ErrTokenExpired))
}

func TestValidate_TamperedPayload(t *testing.T) {
	t.Parallel()

	m := NewManager(testSecret, time.Hour)
	raw, err := m.Issue(1, "alice", RoleStudent)
	require.NoError(t, err)

	admin, err := m.Issue(1, "alice", RoleAdmin)
	require.NoError(t, err)

	// Graft the admin payload onto the student signature.
	parts := strings.Split(raw, ".")
	adminParts := strings.Split(admin, ".")
	forged := parts[0] + "." + adminParts[1] + "." + parts[2]

	_, err = m.Validate(forged)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestValidate_NoneAlgorithm(t *testing.T) {
	t.Parallel()

	claims := Claims{
		UserID:   1,
		Username: "alice",
		Role:     RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewManager(testSecret, time.Hour).Validate(raw)
	require.Error(t, err)
}

func TestValidate_Garbage(t *testing.T) {
	t.Parallel()

	m := NewManager(testSecret, time.Hour)
	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := m.Validate(raw)
		assert.ErrorIs(t, err, ErrMalformedToken, "input %q", raw)
	}
}

func TestIssue_MissingClaims(t *testing.T) {
	t.Parallel()

	m := NewManager(testSecret, time.Hour)

	_, err := m.Issue(0, "alice", RoleStudent)
	assert.ErrorIs(t, err, ErrMissingClaims)

	_, err = m.Issue(1, "", RoleStudent)
	assert.ErrorIs(t, err, ErrMissingClaims)

	_, err = m.Issue(1, "alice", "superuser")
	assert.ErrorIs(t, err, ErrMissingClaims)
}

func TestNewManager_CopiesSecret(t *testing.T) {
	t.Parallel()

	secret := append([]byte(nil), testSecret...)
	m := NewManager(secret, time.Hour)
	raw, err := m.Issue(1, "alice", RoleStudent)
	require.NoError(t, err)

	secret[0] = 'X'
	_, err = m.Validate(raw)
	assert.NoError(t, err)
}
