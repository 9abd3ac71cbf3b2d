package auth

import (
	"time"

	"github.com/prephub/prephub-api/internal/db"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null;size:64" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null;size:254" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	FullName     string    `json:"full_name"`
	Role         string    `gorm:"not null;size:16" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string { return db.Table("users") }

// Profile is the public view of a user handed to clients.
type Profile struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}
