package passwordreset

import (
	"time"
)

// PasswordResetOtp holds the bcrypt hash of a delivered one-time code.
// Issuing a new code marks every prior row for the account used, so the
// latest unused row by expiry is the only live candidate.
type PasswordResetOtp struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	OtpHash   string    `json:"-" gorm:"size:255;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Used      bool      `json:"used" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
}

func (PasswordResetOtp) TableName() string {
	return "password_reset_otps"
}

// PasswordResetValidation is the capability record granted after OTP
// verification. At most one row per account is active and unused; the
// actual password change consumes it exactly once.
type PasswordResetValidation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Active    bool      `json:"active" gorm:"not null;default:false"`
	Used      bool      `json:"used" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
}

func (PasswordResetValidation) TableName() string {
	return "password_reset_validations"
}
