package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/authkit/services/hashing"
	"github.com/tech-arch1tect/authkit/services/jwt"
	"github.com/tech-arch1tect/authkit/services/passwordreset"
	"github.com/tech-arch1tect/authkit/services/refreshtoken"
	"github.com/tech-arch1tect/authkit/services/user"
	"github.com/tech-arch1tect/authkit/services/verification"
	"github.com/tech-arch1tect/authkit/testutils"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	db := testutils.SetupTestDB(t,
		&user.User{},
		&verification.VerificationToken{},
		&refreshtoken.RefreshToken{},
		&passwordreset.PasswordResetOtp{},
		&passwordreset.PasswordResetValidation{},
	)

	cfg := testutils.GetTestConfig()
	users := user.NewStore(db)
	hasher := hashing.NewService(cfg, nil)
	codec := jwt.NewService(cfg, nil)
	verificationSvc := verification.NewService(db, cfg, nil)
	refreshTokens := refreshtoken.NewService(db, cfg, nil)
	passwordReset := passwordreset.NewService(db, cfg, nil, hasher, users)

	return NewService(cfg, nil, users, hasher, codec, verificationSvc, refreshTokens, passwordReset), db
}

func registerRequest() RegisterRequest {
	return RegisterRequest{
		Email:     "alice@x.com",
		Password:  testutils.TestPasswords.Valid,
		FirstName: "Alice",
		LastName:  "Smith",
	}
}

func verificationTokenFor(t *testing.T, db *gorm.DB, email string) string {
	var account user.User
	require.NoError(t, db.Where("email = ?", email).First(&account).Error)

	var token verification.VerificationToken
	require.NoError(t, db.Where("user_id = ?", account.ID).First(&token).Error)
	return token.Token
}

func registerAndVerify(t *testing.T, service *Service, db *gorm.DB) {
	require.NoError(t, service.Register(registerRequest()))

	enabled, err := service.VerifyEmail(verificationTokenFor(t, db, "alice@x.com"))
	require.NoError(t, err)
	require.True(t, enabled)
}

func TestService_Register(t *testing.T) {
	service, db := setupService(t)

	require.NoError(t, service.Register(registerRequest()))

	var account user.User
	require.NoError(t, db.Where("email = ?", "alice@x.com").First(&account).Error)
	assert.False(t, account.Enabled)
	assert.Equal(t, "Alice", account.FirstName)
	assert.NotEqual(t, testutils.TestPasswords.Valid, account.Password)

	var tokenCount int64
	db.Model(&verification.VerificationToken{}).Where("user_id = ?", account.ID).Count(&tokenCount)
	assert.Equal(t, int64(1), tokenCount)
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	service, db := setupService(t)

	require.NoError(t, service.Register(registerRequest()))

	req := registerRequest()
	req.FirstName = "Mallory"
	err := service.Register(req)
	require.Error(t, err)
	assert.Equal(t, ErrEmailAlreadyExists, err)

	// the original account is untouched
	var account user.User
	require.NoError(t, db.Where("email = ?", "alice@x.com").First(&account).Error)
	assert.Equal(t, "Alice", account.FirstName)

	var userCount int64
	db.Model(&user.User{}).Count(&userCount)
	assert.Equal(t, int64(1), userCount)
}

func TestService_Register_NotifierReceivesToken(t *testing.T) {
	service, db := setupService(t)

	notifier := &testutils.MockNotifier{}
	notifier.On("SendVerificationLink", "alice@x.com", mock.AnythingOfType("string")).Return(nil)
	service.SetNotifier(notifier)

	require.NoError(t, service.Register(registerRequest()))

	notifier.AssertExpectations(t)
	sent := notifier.Calls[0].Arguments.String(1)
	assert.Equal(t, verificationTokenFor(t, db, "alice@x.com"), sent)
}

func TestService_Register_NotifierFailureDoesNotFailRegistration(t *testing.T) {
	service, db := setupService(t)

	notifier := &testutils.MockNotifier{}
	notifier.On("SendVerificationLink", "alice@x.com", mock.AnythingOfType("string")).Return(errors.New("smtp down"))
	service.SetNotifier(notifier)

	require.NoError(t, service.Register(registerRequest()))

	var account user.User
	require.NoError(t, db.Where("email = ?", "alice@x.com").First(&account).Error)
}

func TestService_Login_BeforeVerification(t *testing.T) {
	service, _ := setupService(t)

	require.NoError(t, service.Register(registerRequest()))

	_, err := service.Login("alice@x.com", testutils.TestPasswords.Valid)
	require.Error(t, err)
	assert.Equal(t, ErrAccountNotVerified, err)
}

func TestService_Login_UniformCredentialErrors(t *testing.T) {
	service, db := setupService(t)
	registerAndVerify(t, service, db)

	t.Run("unknown email", func(t *testing.T) {
		_, err := service.Login("nobody@x.com", testutils.TestPasswords.Valid)
		assert.Equal(t, ErrInvalidCredentials, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := service.Login("alice@x.com", testutils.TestPasswords.Another)
		assert.Equal(t, ErrInvalidCredentials, err)
	})
}

func TestService_Login(t *testing.T) {
	service, db := setupService(t)
	registerAndVerify(t, service, db)

	pair, err := service.Login("alice@x.com", testutils.TestPasswords.Valid)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	subject, ok := service.AuthenticateBearer(pair.AccessToken)
	require.True(t, ok)
	assert.Equal(t, "alice@x.com", subject)
}

func TestService_Login_SupersedesPriorSession(t *testing.T) {
	service, db := setupService(t)
	registerAndVerify(t, service, db)

	first, err := service.Login("alice@x.com", testutils.TestPasswords.Valid)
	require.NoError(t, err)

	second, err := service.Login("alice@x.com", testutils.TestPasswords.Valid)
	require.NoError(t, err)

	_, err = service.RefreshAccessToken(first.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, refreshtoken.ErrRefreshTokenInvalid, err)

	_, err = service.RefreshAccessToken(second.RefreshToken)
	require.NoError(t, err)
}

func TestService_RefreshAccessToken(t *testing.T) {
	service, db := setupService(t)
	registerAndVerify(t, service, db)

	pair, err := service.Login("alice@x.com", testutils.TestPasswords.Valid)
	require.NoError(t, err)

	accessToken, err := service.RefreshAccessToken(pair.RefreshToken)
	require.NoError(t, err)

	subject, ok := service.AuthenticateBearer(accessToken)
	require.True(t, ok)
	assert.Equal(t, "alice@x.com", subject)

	// the refresh token is not rotated and stays usable
	_, err = service.RefreshAccessToken(pair.RefreshToken)
	require.NoError(t, err)
}

func TestService_Logout(t *testing.T) {
	service, db := setupService(t)
	registerAndVerify(t, service, db)

	pair, err := service.Login("alice@x.com", testutils.TestPasswords.Valid)
	require.NoError(t, err)

	require.NoError(t, service.Logout(pair.RefreshToken))

	_, err = service.RefreshAccessToken(pair.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, refreshtoken.ErrRefreshTokenRevoked, err)
}

func TestService_PasswordResetFlow(t *testing.T) {
	service, db := setupService(t)
	registerAndVerify(t, service, db)

	notifier := &testutils.MockNotifier{}
	notifier.On("SendOtp", "alice@x.com", mock.AnythingOfType("string")).Return(nil)
	service.passwordReset.SetNotifier(notifier)

	require.NoError(t, service.RequestPasswordReset("alice@x.com"))
	otp := notifier.Calls[0].Arguments.String(1)

	require.NoError(t, service.VerifyResetOtp("alice@x.com", otp))
	require.NoError(t, service.ResetPassword("alice@x.com", testutils.TestPasswords.Another))

	_, err := service.Login("alice@x.com", testutils.TestPasswords.Valid)
	assert.Equal(t, ErrInvalidCredentials, err)

	_, err = service.Login("alice@x.com", testutils.TestPasswords.Another)
	require.NoError(t, err)
}

func TestService_AuthenticateBearer_Invalid(t *testing.T) {
	service, _ := setupService(t)

	subject, ok := service.AuthenticateBearer("not-a-token")
	assert.False(t, ok)
	assert.Empty(t, subject)
}

func TestService_VerifyEmail_InvalidToken(t *testing.T) {
	service, _ := setupService(t)

	enabled, err := service.VerifyEmail("no-such-token")
	require.Error(t, err)
	assert.Equal(t, verification.ErrTokenInvalid, err)
	assert.False(t, enabled)
}
