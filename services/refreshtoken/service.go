package refreshtoken

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/tech-arch1tect/authkit/config"
	"github.com/tech-arch1tect/authkit/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrRefreshTokenInvalid   = errors.New("invalid refresh token")
	ErrRefreshTokenExpired   = errors.New("refresh token expired")
	ErrRefreshTokenRevoked   = errors.New("refresh token revoked")
	ErrTokenGenerationFailed = errors.New("failed to generate secure token")
)

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

// Issue mints a new refresh token for the user. All prior tokens for the
// account are deleted in the same transaction, which is what enforces the
// single-active-session invariant even under concurrent logins.
func (s *Service) Issue(userID uint) (*RefreshTokenData, error) {
	token, err := s.generateSecureToken()
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to generate secure refresh token", zap.Error(err))
		}
		return nil, ErrTokenGenerationFailed
	}

	refreshToken := RefreshToken{
		UserID:    userID,
		TokenHash: s.hashToken(token),
		ExpiresAt: s.now().Add(s.config.RefreshToken.Expiry),
		Revoked:   false,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&RefreshToken{}).Error; err != nil {
			return fmt.Errorf("failed to delete prior refresh tokens: %w", err)
		}
		if err := tx.Create(&refreshToken).Error; err != nil {
			return fmt.Errorf("failed to store refresh token: %w", err)
		}
		return nil
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to issue refresh token", zap.Error(err), zap.Uint("user_id", userID))
		}
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("refresh token issued",
			zap.Uint("user_id", userID),
			zap.Uint("token_id", refreshToken.ID),
			zap.Time("expires_at", refreshToken.ExpiresAt))
	}

	return &RefreshTokenData{
		Token:     token,
		TokenID:   refreshToken.ID,
		ExpiresAt: refreshToken.ExpiresAt,
	}, nil
}

// Validate looks the token up by value and checks revocation before expiry.
// It never mutates the row; the refresh path is a read-only check.
func (s *Service) Validate(tokenString string) (*RefreshToken, error) {
	var refreshToken RefreshToken
	err := s.db.Where("token_hash = ?", s.hashToken(tokenString)).First(&refreshToken).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.logger != nil {
				s.logger.Warn("refresh token validation failed - token not found")
			}
			return nil, ErrRefreshTokenInvalid
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if refreshToken.Revoked {
		if s.logger != nil {
			s.logger.Warn("refresh token validation failed - token revoked",
				zap.Uint("token_id", refreshToken.ID),
				zap.Uint("user_id", refreshToken.UserID))
		}
		return nil, ErrRefreshTokenRevoked
	}

	if s.now().After(refreshToken.ExpiresAt) {
		if s.logger != nil {
			s.logger.Warn("refresh token validation failed - token expired",
				zap.Uint("token_id", refreshToken.ID),
				zap.Uint("user_id", refreshToken.UserID),
				zap.Time("expired_at", refreshToken.ExpiresAt))
		}
		return nil, ErrRefreshTokenExpired
	}

	return &refreshToken, nil
}

// Revoke marks the token revoked. The row is retained, so revoking an
// already revoked token succeeds and an unknown value is the only failure.
func (s *Service) Revoke(tokenString string) error {
	var refreshToken RefreshToken
	err := s.db.Where("token_hash = ?", s.hashToken(tokenString)).First(&refreshToken).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.logger != nil {
				s.logger.Warn("refresh token revocation failed - token not found")
			}
			return ErrRefreshTokenInvalid
		}
		return fmt.Errorf("database error: %w", err)
	}

	refreshToken.Revoked = true
	if err := s.db.Save(&refreshToken).Error; err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("refresh token revoked",
			zap.Uint("token_id", refreshToken.ID),
			zap.Uint("user_id", refreshToken.UserID))
	}
	return nil
}

// CleanupExpiredTokens deletes rows past their expiry. Revoked rows are
// kept until they expire.
func (s *Service) CleanupExpiredTokens() error {
	result := s.db.Where("expires_at < ?", s.now()).Delete(&RefreshToken{})
	if result.Error != nil {
		if s.logger != nil {
			s.logger.Error("failed to cleanup expired refresh tokens", zap.Error(result.Error))
		}
		return fmt.Errorf("failed to cleanup expired tokens: %w", result.Error)
	}

	if s.logger != nil {
		if result.RowsAffected > 0 {
			s.logger.Info("cleaned up expired refresh tokens",
				zap.Int64("count", result.RowsAffected))
		} else {
			s.logger.Debug("no expired refresh tokens found to cleanup")
		}
	}
	return nil
}

func (s *Service) generateSecureToken() (string, error) {
	tokenBytes := make([]byte, s.config.RefreshToken.TokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(tokenBytes), nil
}

func (s *Service) hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func (s *Service) StartCleanupWorker() {
	go func() {
		ticker := time.NewTicker(s.config.RefreshToken.CleanupInterval)
		defer ticker.Stop()

		for range ticker.C {
			if err := s.CleanupExpiredTokens(); err != nil && s.logger != nil {
				s.logger.Error("refresh token cleanup worker failed", zap.Error(err))
			}
		}
	}()

	if s.logger != nil {
		s.logger.Info("started refresh token cleanup worker",
			zap.Duration("interval", s.config.RefreshToken.CleanupInterval))
	}
}
