package auth

import (
	"context"
	"errors"

	"github.com/prephub/prephub-api/internal/db"
	"github.com/prephub/prephub-api/internal/middleware"
	"github.com/samber/oops"
	"gorm.io/gorm"
)

// UserStore is the credential store.
type UserStore interface {
	// CreateUser inserts u and fills in its ID. A username or email that is
	// already taken yields ErrDuplicateAccount.
	CreateUser(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uint) (*User, error)
}

// GormStore keeps users in Postgres.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(d *gorm.DB) *GormStore {
	return &GormStore{db: d}
}

func (s *GormStore) CreateUser(ctx context.Context, u *User) error {
	err := s.db.WithContext(ctx).Create(u).Error
	if err == nil {
		return nil
	}
	if db.IsUniqueViolation(err) {
		return ErrDuplicateAccount
	}
	return oops.Code("AUTH_STORE_FAILED").With("op", "create_user").Wrap(err)
}

func (s *GormStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *GormStore) FindByID(ctx context.Context, id uint) (*User, error) {
	return s.first(ctx, "id = ?", id)
}

// FindRoleByID lets the admin middleware check the stored role.
func (s *GormStore) FindRoleByID(ctx context.Context, id uint) (string, error) {
	u, err := s.FindByID(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return "", middleware.ErrUnknownUser
	}
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

func (s *GormStore) first(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where(query, arg).First(&u).Error
	if err == nil {
		return &u, nil
	}
	if db.IsNotFound(err) {
		return nil, ErrUserNotFound
	}
	return nil, oops.Code("AUTH_STORE_FAILED").With("op", "find_user").Wrap(err)
}
