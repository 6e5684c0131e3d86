package auth

import (
	"errors"
	"time"

	"github.com/tech-arch1tect/authkit/config"
	"github.com/tech-arch1tect/authkit/services/hashing"
	"github.com/tech-arch1tect/authkit/services/jwt"
	"github.com/tech-arch1tect/authkit/services/logging"
	"github.com/tech-arch1tect/authkit/services/passwordreset"
	"github.com/tech-arch1tect/authkit/services/refreshtoken"
	"github.com/tech-arch1tect/authkit/services/user"
	"github.com/tech-arch1tect/authkit/services/verification"
	"go.uber.org/zap"
)

var (
	ErrEmailAlreadyExists = errors.New("email already registered")
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password, so login responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotVerified = errors.New("email address not verified")
)

// Notifier delivers verification links out of band. Delivery failures are
// logged and never roll back the registration that preceded them.
type Notifier interface {
	SendVerificationLink(email, token string) error
}

// TokenPair is the result of a successful login: a short-lived stateless
// access token and a long-lived store-backed refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Service is the credential and token lifecycle engine. It owns
// registration, email verification, the session state machine
// (login/refresh/logout) and delegates the password reset phases.
//
// Logout revokes the refresh token only. Access tokens stay verifiable
// until their expiry because no store lookup happens on verification; the
// residual exposure window is bounded by the access-token lifetime.
type Service struct {
	config        *config.Config
	logger        *logging.Service
	users         *user.Store
	hasher        *hashing.Service
	codec         *jwt.Service
	verification  *verification.Service
	refreshTokens *refreshtoken.Service
	passwordReset *passwordreset.Service
	notifier      Notifier
}

func NewService(
	cfg *config.Config,
	logger *logging.Service,
	users *user.Store,
	hasher *hashing.Service,
	codec *jwt.Service,
	verificationSvc *verification.Service,
	refreshTokens *refreshtoken.Service,
	passwordReset *passwordreset.Service,
) *Service {
	return &Service{
		config:        cfg,
		logger:        logger,
		users:         users,
		hasher:        hasher,
		codec:         codec,
		verification:  verificationSvc,
		refreshTokens: refreshTokens,
		passwordReset: passwordReset,
	}
}

func (s *Service) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

// Register creates a disabled account and issues its verification token.
type RegisterRequest struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
	Gender      string
	DateOfBirth *time.Time
}

func (s *Service) Register(req RegisterRequest) error {
	exists, err := s.users.ExistsByEmail(req.Email)
	if err != nil {
		return err
	}
	if exists {
		if s.logger != nil {
			s.logger.Warn("registration rejected - email already registered")
		}
		return ErrEmailAlreadyExists
	}

	passwordHash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return err
	}

	account := &user.User{
		Email:       req.Email,
		Password:    passwordHash,
		Enabled:     false,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Gender:      req.Gender,
		DateOfBirth: req.DateOfBirth,
	}
	if err := s.users.Create(account); err != nil {
		return err
	}

	token, err := s.verification.Issue(account.ID)
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("account registered", zap.Uint("user_id", account.ID))
	}

	if s.notifier != nil {
		if err := s.notifier.SendVerificationLink(account.Email, token.Token); err != nil && s.logger != nil {
			s.logger.Error("failed to send verification email", zap.Error(err), zap.Uint("user_id", account.ID))
		}
	}

	return nil
}

// VerifyEmail consumes the verification token and enables the account.
func (s *Service) VerifyEmail(token string) (bool, error) {
	if _, err := s.verification.Consume(token); err != nil {
		return false, err
	}
	return true, nil
}

// Login authenticates the credentials and starts the account's single
// session: any previously issued refresh token is invalidated by the new
// issuance.
func (s *Service) Login(email, password string) (*TokenPair, error) {
	account, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			if s.logger != nil {
				s.logger.Warn("login failed - unknown email")
			}
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !account.Enabled {
		if s.logger != nil {
			s.logger.Warn("login rejected - email not verified", zap.Uint("user_id", account.ID))
		}
		return nil, ErrAccountNotVerified
	}

	if err := s.hasher.VerifyPassword(account.Password, password); err != nil {
		if s.logger != nil {
			s.logger.Warn("login failed - wrong password", zap.Uint("user_id", account.ID))
		}
		return nil, ErrInvalidCredentials
	}

	refreshData, err := s.refreshTokens.Issue(account.ID)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.codec.GenerateAccessToken(account.Email)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("login successful", zap.Uint("user_id", account.ID))
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshData.Token,
	}, nil
}

// RefreshAccessToken mints a new access token off a valid refresh token.
// The refresh token itself is not rotated.
func (s *Service) RefreshAccessToken(refreshTokenValue string) (string, error) {
	token, err := s.refreshTokens.Validate(refreshTokenValue)
	if err != nil {
		return "", err
	}

	account, err := s.users.FindByID(token.UserID)
	if err != nil {
		return "", err
	}

	return s.codec.GenerateAccessToken(account.Email)
}

// Logout revokes the refresh token; the row is retained.
func (s *Service) Logout(refreshTokenValue string) error {
	return s.refreshTokens.Revoke(refreshTokenValue)
}

// RequestPasswordReset starts the OTP phase of the reset flow.
func (s *Service) RequestPasswordReset(email string) error {
	return s.passwordReset.RequestReset(email)
}

// VerifyResetOtp exchanges a valid OTP for a time-boxed reset window.
func (s *Service) VerifyResetOtp(email, otp string) error {
	return s.passwordReset.VerifyOtp(email, otp)
}

// ResetPassword consumes the reset window and replaces the password.
func (s *Service) ResetPassword(email, newPassword string) error {
	return s.passwordReset.ResetPassword(email, newPassword)
}

// AuthenticateBearer verifies a stateless access token and returns the
// subject email. The boolean is false for any invalid, malformed or
// expired token; callers treat that as anonymous.
func (s *Service) AuthenticateBearer(token string) (string, bool) {
	subject, err := s.codec.ExtractSubject(token)
	if err != nil {
		return "", false
	}
	return subject, true
}
