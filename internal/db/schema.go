package db

import "gorm.io/gorm"

// Schema holds every PrepHub table.
const Schema = "prephub"

// EnsureSchema creates the Postgres schema if it does not exist yet.
func EnsureSchema(d *gorm.DB, schema string) error {
	return d.Exec(`CREATE SCHEMA IF NOT EXISTS "` + schema + `"`).Error
}

// Table qualifies name with the PrepHub schema.
func Table(name string) string {
	return Schema + "." + name
}
