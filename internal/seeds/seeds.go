// Package seeds loads the starter course catalog and the bootstrap admin.
package seeds

import (
	"context"
	"log/slog"

	"github.com/prephub/prephub-api/internal/auth"
	"github.com/prephub/prephub-api/internal/courses"
	"gorm.io/gorm"
)

type Options struct {
	// AdminEmail, when set, creates an admin account if none exists for it.
	AdminEmail    string
	AdminUsername string
	AdminPassword string
	BcryptCost    int
}

func SeedAll(ctx context.Context, d *gorm.DB, opts Options, log *slog.Logger) error {
	if _, err := SeedCourses(ctx, courses.NewGormStore(d), log); err != nil {
		return err
	}
	if opts.AdminEmail == "" {
		log.Info("⚠️ PREPHUB_ADMIN_EMAIL not set, skipping admin account")
		return nil
	}
	return SeedAdmin(ctx, auth.NewGormStore(d), auth.NewBcryptHasher(opts.BcryptCost), opts, log)
}
