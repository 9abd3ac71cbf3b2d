package courses

import (
	"time"

	"github.com/lib/pq"
	"github.com/prephub/prephub-api/internal/db"
	"gorm.io/gorm"
)

const (
	LevelBeginner = "beginner"

	freeCertificate = "✅ FREE CERTIFICATE"
)

type Course struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `json:"description"`
	Category    string         `gorm:"index" json:"category"`
	Level       string         `gorm:"not null" json:"level"`
	IsFree      bool           `gorm:"not null" json:"is_free"`
	URL         string         `json:"url"`
	Tags        pq.StringArray `gorm:"type:text[]" json:"tags"`
	CertStatus  string         `gorm:"-" json:"cert_status,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (Course) TableName() string { return db.Table("courses") }

func (c *Course) fillDerived() {
	c.CertStatus = ""
	if c.IsFree {
		c.CertStatus = freeCertificate
	}
}

// AfterFind fills CertStatus on every loaded course.
func (c *Course) AfterFind(*gorm.DB) error {
	c.fillDerived()
	return nil
}

// Input is the writable part of a course. Level and IsFree default to
// beginner and true when omitted.
type Input struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Level       string   `json:"level"`
	IsFree      *bool    `json:"is_free"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Category string
	Level    string
}
