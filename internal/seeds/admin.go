package seeds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prephub/prephub-api/internal/auth"
	"github.com/prephub/prephub-api/internal/token"
)

// SeedAdmin creates the bootstrap admin. Registration only hands out the
// admin role to callers who already are admins, so the first one comes from
// here. An existing account with the same email is left untouched.
func SeedAdmin(ctx context.Context, store auth.UserStore, hasher auth.PasswordHasher, opts Options, log *slog.Logger) error {
	email := auth.NormalizeEmail(opts.AdminEmail)
	username := strings.TrimSpace(opts.AdminUsername)
	if username == "" {
		username = "admin"
	}
	if len(opts.AdminPassword) < 6 || len(opts.AdminPassword) > auth.MaxPasswordBytes {
		return fmt.Errorf("admin password must be between 6 and %d bytes", auth.MaxPasswordBytes)
	}

	_, err := store.FindByEmail(ctx, email)
	if err == nil {
		log.Info("⚠️ Admin exists, skipping", "email", email)
		return nil
	}
	if !errors.Is(err, auth.ErrUserNotFound) {
		return fmt.Errorf("DB error on admin %s: %w", email, err)
	}

	hash, err := hasher.Hash(opts.AdminPassword)
	if err != nil {
		return err
	}
	u := &auth.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FullName:     "Administrator",
		Role:         token.RoleAdmin,
	}
	if err := store.CreateUser(ctx, u); err != nil {
		return fmt.Errorf("failed to create admin %s: %w", email, err)
	}

	log.Info("✅ Seeded admin account", "user_id", u.ID, "email", email)
	return nil
}
