package controllers

import (
	"context"
	"net/http"

	"github.com/HSouheill/microtask_backend/config"
	"github.com/HSouheill/microtask_backend/models"
	"github.com/HSouheill/microtask_backend/services"
	"github.com/HSouheill/microtask_backend/utils"
	"github.com/labstack/echo/v4"
)

// AuthController exchanges an identity payload for a bearer token
type AuthController struct {
	identity *services.IdentityService
}

func NewAuthController(identity *services.IdentityService) *AuthController {
	return &AuthController{identity: identity}
}

// IssueToken handles POST /jwt
func (ac *AuthController) IssueToken(c echo.Context) error {
	var req models.TokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return respondError(c, models.ErrInvalidInput)
	}

	token, err := ac.identity.IssueToken(email)
	if err != nil {
		c.Logger().Errorf("Failed to sign token: %v", err)
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Token issued successfully",
		Data:    map[string]string{"token": token},
	})
}

// requestContext bounds store calls made on behalf of one request.
func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), config.RequestTimeout)
}
