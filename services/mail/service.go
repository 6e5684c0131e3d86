package mail

import (
	"fmt"
	"time"

	"github.com/tech-arch1tect/authkit/config"
	"github.com/tech-arch1tect/authkit/services/logging"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Service delivers the out-of-band notifications the engine produces: the
// email verification link and the password reset OTP. Delivery is best
// effort from the engine's point of view; callers log failures and move on.
type Service struct {
	config *config.Config
	client *mail.Client
	logger *logging.Service
}

func NewService(cfg *config.Config, logger *logging.Service) (*Service, error) {
	if cfg.Mail.FromAddress == "" {
		if logger != nil {
			logger.Error("mail service initialization failed: FROM_ADDRESS is required")
		}
		return nil, fmt.Errorf("MAIL_FROM_ADDRESS is required")
	}

	clientOpts := []mail.Option{
		mail.WithPort(cfg.Mail.Port),
	}

	if cfg.Mail.Username != "" {
		clientOpts = append(clientOpts, mail.WithSMTPAuth(mail.SMTPAuthPlain))
		clientOpts = append(clientOpts, mail.WithUsername(cfg.Mail.Username))
	}
	if cfg.Mail.Password != "" {
		clientOpts = append(clientOpts, mail.WithPassword(cfg.Mail.Password))
	}

	switch cfg.Mail.Encryption {
	case "tls", "starttls":
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	case "ssl":
		clientOpts = append(clientOpts, mail.WithSSL())
	case "none":
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.NoTLS))
	default:
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(cfg.Mail.Host, clientOpts...)
	if err != nil {
		if logger != nil {
			logger.Error("failed to create mail client",
				zap.Error(err),
				zap.String("host", cfg.Mail.Host),
				zap.Int("port", cfg.Mail.Port))
		}
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	if logger != nil {
		logger.Info("mail service initialized",
			zap.String("host", cfg.Mail.Host),
			zap.Int("port", cfg.Mail.Port),
			zap.String("from_address", cfg.Mail.FromAddress))
	}

	return &Service{
		config: cfg,
		client: client,
		logger: logger,
	}, nil
}

func (s *Service) newMessage(to string) (*mail.Msg, error) {
	message := mail.NewMsg()

	fromAddr := s.config.Mail.FromAddress
	if s.config.Mail.FromName != "" {
		fromAddr = fmt.Sprintf("%s <%s>", s.config.Mail.FromName, s.config.Mail.FromAddress)
	}

	if err := message.From(fromAddr); err != nil {
		return nil, fmt.Errorf("failed to set FROM address: %w", err)
	}
	if err := message.To(to); err != nil {
		return nil, fmt.Errorf("failed to set TO address: %w", err)
	}

	return message, nil
}

func (s *Service) send(message *mail.Msg) error {
	startTime := time.Now()
	err := s.client.DialAndSend(message)
	duration := time.Since(startTime)

	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to send email",
				zap.Error(err),
				zap.Duration("attempt_duration", duration))
		}
		return err
	}

	if s.logger != nil {
		s.logger.Info("email sent successfully",
			zap.Duration("send_duration", duration))
	}
	return nil
}

// SendVerificationLink mails the account activation link for a freshly
// registered address.
func (s *Service) SendVerificationLink(email, token string) error {
	message, err := s.newMessage(email)
	if err != nil {
		return err
	}

	verificationURL := fmt.Sprintf("%s/auth/verify-email?token=%s", s.config.App.URL, token)

	message.Subject("Please verify your email address")
	message.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Welcome to %s!\n\nPlease verify your email address by opening the link below:\n\n%s\n\nThe link is valid for %s.\n",
		s.config.App.Name, verificationURL, s.config.Auth.VerificationExpiry))

	return s.send(message)
}

// SendOtp mails a password reset code. The plaintext code exists only in
// this message; the engine stores a hash.
func (s *Service) SendOtp(email, otp string) error {
	message, err := s.newMessage(email)
	if err != nil {
		return err
	}

	message.Subject("Your password reset code")
	message.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Your %s password reset code is: %s\n\nThe code is valid for %s and can be used once.\nIf you did not request a reset, you can ignore this message.\n",
		s.config.App.Name, otp, s.config.Auth.OtpExpiry))

	return s.send(message)
}
