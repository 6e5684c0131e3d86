package jwt

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/authkit/services/jwt"
)

const SubjectKey = "_jwt_subject"

// OptionalAuth extracts and verifies the bearer access token. A missing or
// invalid token is treated as anonymous and the request proceeds; the guard
// never short-circuits. Downstream authorization decides what anonymous
// callers may do.
func OptionalAuth(jwtService *jwt.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := bearerToken(c)
			if tokenString == "" {
				return next(c)
			}

			subject, err := jwtService.ExtractSubject(tokenString)
			if err != nil {
				return next(c)
			}

			c.Set(SubjectKey, subject)
			return next(c)
		}
	}
}

// RequireAuth rejects requests without a valid bearer access token.
func RequireAuth(jwtService *jwt.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := bearerToken(c)
			if tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header required")
			}

			subject, err := jwtService.ExtractSubject(tokenString)
			if err != nil {
				switch err {
				case jwt.ErrExpiredToken:
					return echo.NewHTTPError(http.StatusUnauthorized, "JWT token has expired")
				case jwt.ErrMalformedToken:
					return echo.NewHTTPError(http.StatusUnauthorized, "Malformed JWT token")
				case jwt.ErrInvalidSignature:
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid JWT token signature")
				default:
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid JWT token")
				}
			}

			c.Set(SubjectKey, subject)
			return next(c)
		}
	}
}

// GetSubject returns the verified subject email, or "" for anonymous
// requests.
func GetSubject(c echo.Context) string {
	if subject, ok := c.Get(SubjectKey).(string); ok {
		return subject
	}
	return ""
}

func bearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}
