package jobs

import (
	"github.com/prephub/prephub-api/internal/db"
	"github.com/samber/oops"
	"gorm.io/gorm"
)

func Init(d *gorm.DB) error {
	if err := db.EnsureSchema(d, db.Schema); err != nil {
		return oops.Code("DB_MIGRATE_FAILED").With("schema", db.Schema).Wrap(err)
	}
	if err := d.AutoMigrate(&Application{}); err != nil {
		return oops.Code("DB_MIGRATE_FAILED").With("table", "job_applications").Wrap(err)
	}
	return nil
}
