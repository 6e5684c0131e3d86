package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/authkit/internal/options"
	"github.com/tech-arch1tect/authkit/services/auth"
	"github.com/tech-arch1tect/authkit/services/verification"
	"github.com/tech-arch1tect/authkit/testutils"
)

func newTestApp(t *testing.T) *App {
	cfg := testutils.GetTestConfig()
	cfg.Database.AutoMigrate = true

	application := New(
		options.WithConfig(cfg),
		options.WithAuth(),
	)
	require.NoError(t, application.Start())
	t.Cleanup(application.Stop)
	return application
}

func TestNew_WithAuth(t *testing.T) {
	application := newTestApp(t)

	assert.NotNil(t, application.Config())
	assert.NotNil(t, application.Logger())
	assert.NotNil(t, application.DB())
	assert.NotNil(t, application.Auth())
	assert.Nil(t, application.Server())
}

func TestNew_AuthFlowEndToEnd(t *testing.T) {
	application := newTestApp(t)
	authSvc := application.Auth()

	require.NoError(t, authSvc.Register(auth.RegisterRequest{
		Email:    "alice@x.com",
		Password: testutils.TestPasswords.Valid,
	}))

	var token verification.VerificationToken
	require.NoError(t, application.DB().First(&token).Error)

	enabled, err := authSvc.VerifyEmail(token.Token)
	require.NoError(t, err)
	require.True(t, enabled)

	pair, err := authSvc.Login("alice@x.com", testutils.TestPasswords.Valid)
	require.NoError(t, err)

	subject, ok := authSvc.AuthenticateBearer(pair.AccessToken)
	require.True(t, ok)
	assert.Equal(t, "alice@x.com", subject)

	require.NoError(t, authSvc.Logout(pair.RefreshToken))
}

func TestAuthModels(t *testing.T) {
	assert.Len(t, AuthModels(), 5)
}
