package verification

import (
	"time"
)

// VerificationToken is a one-shot email verification token. It is deleted
// on first successful consume, so a second attempt with the same value
// reads as absent.
type VerificationToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Token     string    `json:"-" gorm:"uniqueIndex;size:64;not null"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (VerificationToken) TableName() string {
	return "verification_tokens"
}
