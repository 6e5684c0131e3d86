package verification

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tech-arch1tect/authkit/config"
	"github.com/tech-arch1tect/authkit/services/logging"
	"github.com/tech-arch1tect/authkit/services/user"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrTokenInvalid = errors.New("invalid verification token")
	ErrTokenExpired = errors.New("verification token expired")
)

// Service manages one-shot email verification tokens.
type Service struct {
	db     *gorm.DB
	config *config.Config
	logger *logging.Service
	now    func() time.Time
}

func NewService(db *gorm.DB, cfg *config.Config, logger *logging.Service) *Service {
	return &Service{
		db:     db,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// SetNowFunc overrides the clock. Test hook.
func (s *Service) SetNowFunc(now func() time.Time) {
	s.now = now
}

// Issue creates a fresh verification token for the user and returns it for
// out-of-band delivery. Any previous token for the same user is removed, so
// at most one unconsumed token exists per pending registration.
func (s *Service) Issue(userID uint) (*VerificationToken, error) {
	result := s.db.Where("user_id = ?", userID).Delete(&VerificationToken{})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to remove previous verification tokens: %w", result.Error)
	}
	if s.logger != nil && result.RowsAffected > 0 {
		s.logger.Debug("removed previous verification tokens",
			zap.Uint("user_id", userID),
			zap.Int64("tokens_removed", result.RowsAffected))
	}

	token := &VerificationToken{
		Token:     uuid.New().String(),
		UserID:    userID,
		ExpiresAt: s.now().Add(s.config.Auth.VerificationExpiry),
	}

	if err := s.db.Create(token).Error; err != nil {
		if s.logger != nil {
			s.logger.Error("failed to create verification token", zap.Error(err), zap.Uint("user_id", userID))
		}
		return nil, fmt.Errorf("failed to create verification token: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("verification token created",
			zap.Uint("user_id", userID),
			zap.Time("expires_at", token.ExpiresAt))
	}
	return token, nil
}

// Consume verifies the token and enables the owning account. The token row
// is deleted whether the attempt succeeds or is rejected as expired, so a
// token value never works twice.
func (s *Service) Consume(tokenValue string) (uint, error) {
	var token VerificationToken
	if err := s.db.Where("token = ?", tokenValue).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.logger != nil {
				s.logger.Warn("invalid verification token attempted")
			}
			return 0, ErrTokenInvalid
		}
		return 0, fmt.Errorf("failed to look up verification token: %w", err)
	}

	if s.now().After(token.ExpiresAt) {
		if s.logger != nil {
			s.logger.Warn("expired verification token attempted",
				zap.Uint("user_id", token.UserID),
				zap.Time("expired_at", token.ExpiresAt))
		}
		s.db.Delete(&token)
		return 0, ErrTokenExpired
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user.User{}).Where("id = ?", token.UserID).Update("enabled", true).Error; err != nil {
			return fmt.Errorf("failed to enable user: %w", err)
		}
		if err := tx.Delete(&token).Error; err != nil {
			return fmt.Errorf("failed to delete verification token: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if s.logger != nil {
		s.logger.Info("email verified", zap.Uint("user_id", token.UserID))
	}
	return token.UserID, nil
}

// CleanupExpiredTokens removes verification tokens past their expiry.
func (s *Service) CleanupExpiredTokens() error {
	result := s.db.Where("expires_at < ?", s.now()).Delete(&VerificationToken{})
	if result.Error != nil {
		return fmt.Errorf("failed to cleanup expired verification tokens: %w", result.Error)
	}
	if s.logger != nil && result.RowsAffected > 0 {
		s.logger.Info("expired verification tokens cleaned up",
			zap.Int64("tokens_removed", result.RowsAffected))
	}
	return nil
}
