// controllers/user_controller.go
package controllers

import (
	"net/http"

	"github.com/HSouheill/microtask_backend/middleware"
	"github.com/HSouheill/microtask_backend/models"
	"github.com/HSouheill/microtask_backend/services"
	"github.com/HSouheill/microtask_backend/utils"
	"github.com/labstack/echo/v4"
)

// UserController contains user management logic
type UserController struct {
	accounts *services.AccountService
}

// NewUserController creates a new user controller
func NewUserController(accounts *services.AccountService) *UserController {
	return &UserController{accounts: accounts}
}

// Register handles POST /users/:email. Registering an existing email returns the
// stored account with 200 instead of 201.
func (uc *UserController) Register(c echo.Context) error {
	email, err := utils.SanitizeEmail(c.Param("email"))
	if err != nil {
		return respondError(c, models.ErrInvalidInput)
	}
	var req models.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	req.Name = utils.SanitizeInput(req.Name)

	ctx, cancel := requestContext(c)
	defer cancel()

	created, user, err := uc.accounts.EnsureUser(ctx, email, req)
	if err != nil {
		return respondError(c, err)
	}
	if !created {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "User already exists",
			Data:    user,
		})
	}
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "User registered successfully",
		Data:    user,
	})
}

// GetAllUsers handles GET /users
func (uc *UserController) GetAllUsers(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := uc.accounts.ListUsers(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Users retrieved successfully",
		Data:    users,
	})
}

// GetUser handles GET /users/:email for the caller's own account
func (uc *UserController) GetUser(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := uc.accounts.GetSelf(ctx, middleware.GetIdentity(c), c.Param("email"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "User retrieved successfully",
		Data:    user,
	})
}

// UpdateRole handles PATCH /users/:id
func (uc *UserController) UpdateRole(c echo.Context) error {
	id, err := utils.ParseObjectID(c.Param("id"))
	if err != nil {
		return respondError(c, models.ErrUserNotFound)
	}
	var req models.RoleUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := uc.accounts.ChangeRole(ctx, id, req.Role)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Role updated successfully",
		Data:    user,
	})
}

// DeleteUser handles DELETE /users/:id
func (uc *UserController) DeleteUser(c echo.Context) error {
	id, err := utils.ParseObjectID(c.Param("id"))
	if err != nil {
		return respondError(c, models.ErrUserNotFound)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := uc.accounts.DeleteUser(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "User deleted successfully",
	})
}
