package passwordreset

import (
	"errors"
	"fmt"
	"time"

	"github.com/tech-arch1tect/authkit/config"
	"github.com/tech-arch1tect/authkit/services/hashing"
	"github.com/tech-arch1tect/authkit/services/logging"
	"github.com/tech-arch1tect/authkit/services/user"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrAccountNotFound = errors.New("email not registered")
	// ErrOtpInvalid deliberately covers missing account, missing code,
	// expired code and mismatch, so callers cannot probe which it was.
	ErrOtpInvalid      = errors.New("invalid OTP")
	ErrResetNotAllowed = errors.New("reset not allowed")
	ErrSamePassword    = errors.New("new password cannot be the same as the old one")
)

// Notifier delivers the plaintext code out of band. The engine treats
// delivery as fire-and-forget.
type Notifier interface {
	SendOtp(email, otp string) error
}

// Service drives the two-phase password reset: OTP issuance, OTP
// verification granting a time-boxed reset window, and the password change
// that consumes the window.
type Service struct {
	db       *gorm.DB
	config   *config.Config
	logger   *logging.Service
	hasher   *hashing.Service
	users    *user.Store
	notifier Notifier
	now      func() time.Time
}

func NewService(db *gorm.DB, cfg *config.Config, logger *logging.Service, hasher *hashing.Service, users *user.Store) *Service {
	return &Service{
		db:     db,
		config: cfg,
		logger: logger,
		hasher: hasher,
		users:  users,
		now:    time.Now,
	}
}

func (s *Service) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

// SetNowFunc overrides the clock. Test hook.
func (s *Service) SetNowFunc(now func() time.Time) {
	s.now = now
}

// RequestReset issues a fresh OTP for the account. Every earlier OTP is
// marked used first, closing any stale pending phase. The plaintext code
// goes to the notifier only; the store keeps a bcrypt hash.
func (s *Service) RequestReset(email string) error {
	account, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			if s.logger != nil {
				s.logger.Warn("password reset requested for unknown email")
			}
			return ErrAccountNotFound
		}
		return err
	}

	otp, err := generateOtp(s.config.Auth.OtpLength)
	if err != nil {
		return err
	}

	otpHash, err := s.hasher.HashOtp(otp)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&PasswordResetOtp{}).
			Where("user_id = ?", account.ID).
			Update("used", true).Error; err != nil {
			return fmt.Errorf("failed to invalidate prior otps: %w", err)
		}

		resetOtp := PasswordResetOtp{
			UserID:    account.ID,
			OtpHash:   otpHash,
			ExpiresAt: s.now().Add(s.config.Auth.OtpExpiry),
			Used:      false,
		}
		if err := tx.Create(&resetOtp).Error; err != nil {
			return fmt.Errorf("failed to store otp: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("password reset otp issued", zap.Uint("user_id", account.ID))
	}

	if s.notifier != nil {
		if err := s.notifier.SendOtp(account.Email, otp); err != nil && s.logger != nil {
			s.logger.Error("failed to send password reset otp", zap.Error(err), zap.Uint("user_id", account.ID))
		}
	}

	return nil
}

// VerifyOtp checks the submitted code against the most recent unused OTP
// and, on success, opens the reset-authorization window.
func (s *Service) VerifyOtp(email, otp string) error {
	account, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrOtpInvalid
		}
		return err
	}

	var resetOtp PasswordResetOtp
	err = s.db.Where("user_id = ? AND used = ?", account.ID, false).
		Order("expires_at DESC").
		First(&resetOtp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.logger != nil {
				s.logger.Warn("otp verification failed - no pending otp", zap.Uint("user_id", account.ID))
			}
			return ErrOtpInvalid
		}
		return fmt.Errorf("database error: %w", err)
	}

	if s.now().After(resetOtp.ExpiresAt) {
		if s.logger != nil {
			s.logger.Warn("otp verification failed - otp expired", zap.Uint("user_id", account.ID))
		}
		return ErrOtpInvalid
	}

	if !s.hasher.Matches(resetOtp.OtpHash, otp) {
		if s.logger != nil {
			s.logger.Warn("otp verification failed - mismatch", zap.Uint("user_id", account.ID))
		}
		return ErrOtpInvalid
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		resetOtp.Used = true
		if err := tx.Save(&resetOtp).Error; err != nil {
			return fmt.Errorf("failed to mark otp used: %w", err)
		}

		validation := PasswordResetValidation{
			UserID:    account.ID,
			ExpiresAt: s.now().Add(s.config.Auth.ResetWindowExpiry),
			Active:    true,
			Used:      false,
		}
		if err := tx.Create(&validation).Error; err != nil {
			return fmt.Errorf("failed to create reset validation: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("password reset authorized",
			zap.Uint("user_id", account.ID),
			zap.Duration("window", s.config.Auth.ResetWindowExpiry))
	}
	return nil
}

// ResetPassword changes the password, gated on an unconsumed, unexpired
// reset-authorization window. The window is consumed with a guarded update
// so two concurrent resets cannot both succeed off one validation.
func (s *Service) ResetPassword(email, newPassword string) error {
	account, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrResetNotAllowed
		}
		return err
	}

	var validation PasswordResetValidation
	err = s.db.Where("user_id = ? AND active = ? AND used = ?", account.ID, true, false).
		First(&validation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.logger != nil {
				s.logger.Warn("password reset rejected - no open reset window", zap.Uint("user_id", account.ID))
			}
			return ErrResetNotAllowed
		}
		return fmt.Errorf("database error: %w", err)
	}

	if s.now().After(validation.ExpiresAt) {
		if s.logger != nil {
			s.logger.Warn("password reset rejected - reset window expired", zap.Uint("user_id", account.ID))
		}
		return ErrResetNotAllowed
	}

	if s.hasher.Matches(account.Password, newPassword) {
		return ErrSamePassword
	}

	newHash, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&PasswordResetValidation{}).
			Where("id = ? AND active = ? AND used = ?", validation.ID, true, false).
			Updates(map[string]any{"active": false, "used": true})
		if result.Error != nil {
			return fmt.Errorf("failed to consume reset validation: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrResetNotAllowed
		}

		if err := s.users.WithTx(tx).UpdatePassword(account.ID, newHash); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("password reset completed", zap.Uint("user_id", account.ID))
	}
	return nil
}

// CleanupExpired removes OTP and validation rows past their expiry.
func (s *Service) CleanupExpired() error {
	if err := s.db.Where("expires_at < ?", s.now()).Delete(&PasswordResetOtp{}).Error; err != nil {
		return fmt.Errorf("failed to cleanup expired otps: %w", err)
	}
	if err := s.db.Where("expires_at < ?", s.now()).Delete(&PasswordResetValidation{}).Error; err != nil {
		return fmt.Errorf("failed to cleanup expired reset validations: %w", err)
	}
	return nil
}

func (s *Service) StartCleanupWorker() {
	go func() {
		ticker := time.NewTicker(s.config.Auth.OtpCleanupInterval)
		defer ticker.Stop()

		for range ticker.C {
			if err := s.CleanupExpired(); err != nil && s.logger != nil {
				s.logger.Error("password reset cleanup worker failed", zap.Error(err))
			}
		}
	}()

	if s.logger != nil {
		s.logger.Info("started password reset cleanup worker",
			zap.Duration("interval", s.config.Auth.OtpCleanupInterval))
	}
}
