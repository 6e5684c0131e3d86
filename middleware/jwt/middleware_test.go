package jwt

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	jwtservice "github.com/tech-arch1tect/authkit/services/jwt"
	"github.com/tech-arch1tect/authkit/testutils"
)

func setupMiddleware(t *testing.T) (*jwtservice.Service, string) {
	service := jwtservice.NewService(testutils.GetTestConfig(), nil)

	token, err := service.GenerateAccessToken("alice@x.com")
	require.NoError(t, err)
	return service, token
}

func invoke(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (echo.Context, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return c, handler(c)
}

func TestOptionalAuth_ValidToken(t *testing.T) {
	service, token := setupMiddleware(t)

	c, err := invoke(t, OptionalAuth(service), "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", GetSubject(c))
}

func TestOptionalAuth_NoHeader(t *testing.T) {
	service, _ := setupMiddleware(t)

	c, err := invoke(t, OptionalAuth(service), "")
	require.NoError(t, err)
	assert.Empty(t, GetSubject(c))
}

func TestOptionalAuth_InvalidToken(t *testing.T) {
	service, _ := setupMiddleware(t)

	// an invalid token never short-circuits, the request proceeds anonymous
	c, err := invoke(t, OptionalAuth(service), "Bearer not-a-token")
	require.NoError(t, err)
	assert.Empty(t, GetSubject(c))
}

func TestOptionalAuth_ExpiredToken(t *testing.T) {
	service, token := setupMiddleware(t)
	service.SetNowFunc(func() time.Time { return time.Now().Add(16 * time.Minute) })

	c, err := invoke(t, OptionalAuth(service), "Bearer "+token)
	require.NoError(t, err)
	assert.Empty(t, GetSubject(c))
}

func TestOptionalAuth_WrongScheme(t *testing.T) {
	service, token := setupMiddleware(t)

	c, err := invoke(t, OptionalAuth(service), "Basic "+token)
	require.NoError(t, err)
	assert.Empty(t, GetSubject(c))
}

func TestRequireAuth_ValidToken(t *testing.T) {
	service, token := setupMiddleware(t)

	c, err := invoke(t, RequireAuth(service), "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", GetSubject(c))
}

func TestRequireAuth_NoHeader(t *testing.T) {
	service, _ := setupMiddleware(t)

	_, err := invoke(t, RequireAuth(service), "")
	require.Error(t, err)

	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestRequireAuth_MalformedToken(t *testing.T) {
	service, _ := setupMiddleware(t)

	_, err := invoke(t, RequireAuth(service), "Bearer not-a-token")
	require.Error(t, err)

	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	assert.Equal(t, "Malformed JWT token", httpErr.Message)
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	service, token := setupMiddleware(t)
	service.SetNowFunc(func() time.Time { return time.Now().Add(16 * time.Minute) })

	_, err := invoke(t, RequireAuth(service), "Bearer "+token)
	require.Error(t, err)

	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	assert.Equal(t, "JWT token has expired", httpErr.Message)
}
