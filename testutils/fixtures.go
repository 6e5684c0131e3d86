package testutils

import (
	"time"

	"github.com/tech-arch1tect/authkit/config"
	"golang.org/x/crypto/bcrypt"
)

func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name: "Test App",
			URL:  "http://localhost:8080",
		},
		Auth: config.AuthConfig{
			MinLength:          8,
			RequireUpper:       true,
			RequireLower:       true,
			RequireNumber:      true,
			RequireSpecial:     false,
			BcryptCost:         bcrypt.MinCost,
			VerificationExpiry: 24 * time.Hour,
			OtpLength:          6,
			OtpExpiry:          10 * time.Minute,
			ResetWindowExpiry:  10 * time.Minute,
		},
		JWT: config.JWTConfig{
			SecretKey:    "test-secret-key-32-chars-long!!!",
			Algorithm:    "HS256",
			AccessExpiry: 15 * time.Minute,
			Issuer:       "test-issuer",
		},
		RefreshToken: config.RefreshTokenConfig{
			Expiry:      7 * 24 * time.Hour,
			TokenLength: 32,
		},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			DSN:    ":memory:",
		},
	}
}

var TestPasswords = struct {
	Valid       string
	Another     string
	TooShort    string
	NoUpper     string
	NoLower     string
	NoNumber    string
	WithSpecial string
}{
	Valid:       "Password123",
	Another:     "Password456",
	TooShort:    "Pass1",
	NoUpper:     "password123",
	NoLower:     "PASSWORD123",
	NoNumber:    "Password",
	WithSpecial: "Password123!",
}
