// middleware/auth_middleware.go
package middleware

import (
	"github.com/HSouheill/microtask_backend/models"
	"github.com/HSouheill/microtask_backend/services"
	"github.com/labstack/echo/v4"
)

// RequireRole loads the caller's account and checks its current role against
// allowedRoles. Roles are read from the store on every request, so a role change
// takes effect immediately. With no roles listed any registered account passes.
func RequireRole(ids *services.IdentityService, allowedRoles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := GetIdentity(c)
			if identity == nil {
				return models.ErrUnauthorized
			}
			user, err := ids.Authorize(c.Request().Context(), identity, allowedRoles...)
			if err != nil {
				c.Logger().Infof("Access denied for %s on %s, allowed roles: %v", identity.Email, c.Request().URL.Path, allowedRoles)
				return err
			}
			c.Set(userKey, user)
			return next(c)
		}
	}
}
