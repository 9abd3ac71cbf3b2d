package seeds

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prephub/prephub-api/internal/auth"
	"github.com/prephub/prephub-api/internal/courses"
	"github.com/prephub/prephub-api/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type courseStore struct {
	items []courses.Course
}

func (s *courseStore) List(context.Context, courses.Filter) ([]courses.Course, error) {
	return s.items, nil
}

func (s *courseStore) Get(_ context.Context, id uint) (*courses.Course, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i], nil
		}
	}
	return nil, courses.ErrNotFound
}

func (s *courseStore) Create(_ context.Context, c *courses.Course) error {
	c.ID = uint(len(s.items) + 1)
	s.items = append(s.items, *c)
	return nil
}

func (s *courseStore) Update(context.Context, *courses.Course) error { return nil }
func (s *courseStore) Delete(context.Context, uint) error           { return nil }

type userStore struct {
	users []*auth.User
}

func (s *userStore) CreateUser(_ context.Context, u *auth.User) error {
	u.ID = uint(len(s.users) + 1)
	s.users = append(s.users, u)
	return nil
}

func (s *userStore) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (s *userStore) FindByID(_ context.Context, id uint) (*auth.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func TestSeedCourses_Idempotent(t *testing.T) {
	store := &courseStore{}
	ctx := context.Background()

	n, err := SeedCourses(ctx, store, quiet)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = SeedCourses(ctx, store, quiet)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, store.items, 3)
}

func TestSeedCourses_SkipsExistingTitle(t *testing.T) {
	store := &courseStore{items: []courses.Course{{ID: 1, Title: "NeetCode 150"}}}

	n, err := SeedCourses(context.Background(), store, quiet)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSeedAdmin(t *testing.T) {
	store := &userStore{}
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	opts := Options{AdminEmail: " Root@Example.com ", AdminPassword: "s3cret-pass"}

	require.NoError(t, SeedAdmin(context.Background(), store, hasher, opts, quiet))
	require.Len(t, store.users, 1)

	u := store.users[0]
	assert.Equal(t, "root@example.com", u.Email)
	assert.Equal(t, "admin", u.Username)
	assert.Equal(t, token.RoleAdmin, u.Role)
	assert.True(t, hasher.Verify("s3cret-pass", u.PasswordHash))

	// second run leaves the account alone
	require.NoError(t, SeedAdmin(context.Background(), store, hasher, opts, quiet))
	assert.Len(t, store.users, 1)
}

func TestSeedAdmin_ShortPassword(t *testing.T) {
	err := SeedAdmin(context.Background(), &userStore{}, auth.NewBcryptHasher(bcrypt.MinCost),
		Options{AdminEmail: "a@x.com", AdminPassword: "123"}, quiet)
	assert.Error(t, err)
}

type brokenUsers struct{ userStore }

func (brokenUsers) FindByEmail(context.Context, string) (*auth.User, error) {
	return nil, errors.New("connection refused")
}

func TestSeedAdmin_StoreError(t *testing.T) {
	err := SeedAdmin(context.Background(), &brokenUsers{}, auth.NewBcryptHasher(bcrypt.MinCost),
		Options{AdminEmail: "a@x.com", AdminPassword: "123456"}, quiet)
	assert.ErrorContains(t, err, "connection refused")
}
