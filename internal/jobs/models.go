package jobs

import (
	"time"

	"github.com/prephub/prephub-api/internal/db"
)

const (
	DefaultLocation = "Bangalore"
	DefaultStatus   = "Applied"

	dateLayout = "2006-01-02"
)

// Application is one job the user applied to.
type Application struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"-"`
	Company     string    `gorm:"not null" json:"company"`
	Position    string    `gorm:"not null" json:"position"`
	Location    string    `json:"location"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes"`
	DateApplied string    `gorm:"size:10" json:"date_applied"`
	CreatedAt   time.Time `json:"-"`
}

func (Application) TableName() string { return db.Table("job_applications") }

type Input struct {
	Company  string `json:"company"`
	Position string `json:"position"`
	Location string `json:"location"`
	Status   string `json:"status"`
	Notes    string `json:"notes"`
}
