package auth

import (
	"github.com/prephub/prephub-api/internal/db"
	"github.com/samber/oops"
	"gorm.io/gorm"
)

// Init creates the schema and the users table with its unique indexes.
func Init(d *gorm.DB) error {
	if err := db.EnsureSchema(d, db.Schema); err != nil {
		return oops.Code("DB_MIGRATE_FAILED").With("schema", db.Schema).Wrap(err)
	}

	if err := d.AutoMigrate(&User{}); err != nil {
		return oops.Code("DB_MIGRATE_FAILED").With("table", "users").Wrap(err)
	}
	return nil
}
