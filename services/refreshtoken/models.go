package refreshtoken

import (
	"time"
)

// RefreshToken is the store-backed long-lived credential. Only the sha256
// hash of the opaque value is persisted. Logout sets Revoked instead of
// deleting the row, which keeps repeated logout idempotent and leaves an
// audit trail; a new login deletes all prior rows for the account.
type RefreshToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	TokenHash string    `json:"-" gorm:"uniqueIndex;size:255;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
	Revoked   bool      `json:"revoked" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// RefreshTokenData carries the plaintext token back to the caller exactly
// once, at issuance.
type RefreshTokenData struct {
	Token     string
	TokenID   uint
	ExpiresAt time.Time
}
