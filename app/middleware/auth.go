package middleware

import (
	"net/http"
	"strings"

	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type accessTokenDecoder interface {
	Decode(tokenString string) (*service.Claims, error)
}

type AuthMiddleware struct {
	tokens accessTokenDecoder
}

func NewAuthMiddleware(tokens accessTokenDecoder) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth guards a route with a bearer access token. Every decode
// failure is rejected with the same response.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			logrus.Debug("Missing authorization header")
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "UNAUTHORIZED",
			})
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logrus.Debug("Invalid authorization header format")
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "UNAUTHORIZED",
			})
		}

		claims, err := m.tokens.Decode(parts[1])
		if err != nil {
			logrus.Debug("Invalid or expired access token")
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "UNAUTHORIZED",
			})
		}

		userID, err := claims.UserID()
		if err != nil {
			logrus.Debug("Access token subject is not a user id")
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "UNAUTHORIZED",
			})
		}

		c.Set("user_id", userID)
		c.Set("is_superuser", claims.IsSuperuser)

		return next(c)
	}
}
