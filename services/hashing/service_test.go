package hashing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/authkit/config"
	"github.com/tech-arch1tect/authkit/testutils"
	"golang.org/x/crypto/bcrypt"
)

func TestService_ValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		config   config.AuthConfig
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "valid password",
			password: testutils.TestPasswords.Valid,
			config: config.AuthConfig{
				MinLength:     8,
				RequireUpper:  true,
				RequireLower:  true,
				RequireNumber: true,
			},
			wantErr: false,
		},
		{
			name:     "password too short",
			password: testutils.TestPasswords.TooShort,
			config: config.AuthConfig{
				MinLength:     8,
				RequireUpper:  true,
				RequireLower:  true,
				RequireNumber: true,
			},
			wantErr: true,
			errMsg:  "password must be at least 8 characters",
		},
		{
			name:     "missing uppercase",
			password: testutils.TestPasswords.NoUpper,
			config: config.AuthConfig{
				MinLength:     8,
				RequireUpper:  true,
				RequireLower:  true,
				RequireNumber: true,
			},
			wantErr: true,
			errMsg:  "password must contain at least one uppercase letter",
		},
		{
			name:     "missing lowercase",
			password: testutils.TestPasswords.NoLower,
			config: config.AuthConfig{
				MinLength:     8,
				RequireUpper:  true,
				RequireLower:  true,
				RequireNumber: true,
			},
			wantErr: true,
			errMsg:  "password must contain at least one lowercase letter",
		},
		{
			name:     "missing number",
			password: testutils.TestPasswords.NoNumber,
			config: config.AuthConfig{
				MinLength:     8,
				RequireUpper:  true,
				RequireLower:  true,
				RequireNumber: true,
			},
			wantErr: true,
			errMsg:  "password must contain at least one number",
		},
		{
			name:     "missing special character",
			password: testutils.TestPasswords.Valid,
			config: config.AuthConfig{
				MinLength:      8,
				RequireUpper:   true,
				RequireLower:   true,
				RequireNumber:  true,
				RequireSpecial: true,
			},
			wantErr: true,
			errMsg:  "password must contain at least one special character",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Auth: tt.config}
			cfg.Auth.BcryptCost = bcrypt.MinCost
			service := NewService(cfg, nil)

			err := service.ValidatePassword(tt.password)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestService_HashAndVerifyPassword(t *testing.T) {
	service := NewService(testutils.GetTestConfig(), nil)

	hash, err := service.HashPassword(testutils.TestPasswords.Valid)
	require.NoError(t, err)
	assert.NotEqual(t, testutils.TestPasswords.Valid, hash)

	require.NoError(t, service.VerifyPassword(hash, testutils.TestPasswords.Valid))

	err = service.VerifyPassword(hash, testutils.TestPasswords.Another)
	require.Error(t, err)
	assert.Equal(t, ErrInvalidCredentials, err)
}

func TestService_HashPassword_EnforcesPolicy(t *testing.T) {
	service := NewService(testutils.GetTestConfig(), nil)

	_, err := service.HashPassword(testutils.TestPasswords.TooShort)
	require.Error(t, err)
}

func TestService_Matches(t *testing.T) {
	service := NewService(testutils.GetTestConfig(), nil)

	hash, err := service.HashPassword(testutils.TestPasswords.Valid)
	require.NoError(t, err)

	assert.True(t, service.Matches(hash, testutils.TestPasswords.Valid))
	assert.False(t, service.Matches(hash, testutils.TestPasswords.Another))
}

func TestService_HashOtp(t *testing.T) {
	service := NewService(testutils.GetTestConfig(), nil)

	// short numeric codes are exempt from the password policy
	hash, err := service.HashOtp("123456")
	require.NoError(t, err)
	assert.True(t, service.Matches(hash, "123456"))
	assert.False(t, service.Matches(hash, "654321"))
}

func TestNewService_ClampsBcryptCost(t *testing.T) {
	cfg := testutils.GetTestConfig()
	cfg.Auth.BcryptCost = 99

	NewService(cfg, nil)

	assert.Equal(t, bcrypt.DefaultCost, cfg.Auth.BcryptCost)
}
