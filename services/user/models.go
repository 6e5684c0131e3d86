package user

import (
	"time"
)

// User is the account root. Enabled stays false until the email
// verification token is consumed; Password always holds a bcrypt hash.
type User struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Email       string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Password    string     `json:"-" gorm:"size:255;not null"`
	Enabled     bool       `json:"enabled" gorm:"not null;default:false"`
	FirstName   string     `json:"first_name" gorm:"size:100"`
	LastName    string     `json:"last_name" gorm:"size:100"`
	PhoneNumber string     `json:"phone_number" gorm:"size:30"`
	Gender      string     `json:"gender" gorm:"size:20"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Profile carries the optional registration fields alongside the
// credentials.
type Profile struct {
	FirstName   string
	LastName    string
	PhoneNumber string
	Gender      string
	DateOfBirth *time.Time
}
