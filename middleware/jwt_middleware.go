// middleware/jwt_middleware.go
package middleware

import (
	"strings"

	"github.com/HSouheill/microtask_backend/models"
	"github.com/HSouheill/microtask_backend/services"
	"github.com/labstack/echo/v4"
)

const (
	identityKey = "identity"
	userKey     = "user"
)

// JWTMiddleware verifies the bearer token and stores the caller's identity in the
// context. It does not look at roles.
func JWTMiddleware(ids *services.IdentityService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := ExtractToken(c)
			identity, err := ids.Authenticate(token)
			if err != nil {
				c.Logger().Debugf("JWT middleware - Path: %s, rejected credential", c.Request().URL.Path)
				return models.ErrUnauthorized
			}
			c.Set(identityKey, identity)
			return next(c)
		}
	}
}

// ExtractToken reads the bearer credential from the Authorization header, falling
// back to the token query parameter used by websocket clients.
func ExtractToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return c.QueryParam("token")
}

// GetIdentity returns the identity stored by JWTMiddleware.
func GetIdentity(c echo.Context) *services.Identity {
	identity, _ := c.Get(identityKey).(*services.Identity)
	return identity
}

// GetUser returns the account loaded by RequireRole.
func GetUser(c echo.Context) *models.User {
	user, _ := c.Get(userKey).(*models.User)
	return user
}
