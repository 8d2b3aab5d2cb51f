package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/microtask_backend/controllers"
	"github.com/HSouheill/microtask_backend/middleware"
	"github.com/HSouheill/microtask_backend/models"
	"github.com/HSouheill/microtask_backend/services"
)

// RegisterAuthRoutes sets up token issuance
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController) {
	e.POST("/jwt", authController.IssueToken)
}

// RegisterUserRoutes sets up registration and account management
func RegisterUserRoutes(e *echo.Echo, ids *services.IdentityService, userController *controllers.UserController) {
	auth := middleware.JWTMiddleware(ids)
	admin := middleware.RequireRole(ids, models.RoleAdmin)

	// Public, idempotent registration
	e.POST("/users/:email", userController.Register)

	e.GET("/users", userController.GetAllUsers, auth, admin)
	e.GET("/users/:email", userController.GetUser, auth)
	e.PATCH("/users/:id", userController.UpdateRole, auth, admin)
	e.DELETE("/users/:id", userController.DeleteUser, auth, admin)
}
