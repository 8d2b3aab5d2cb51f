package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/microtask_backend/controllers"
	"github.com/HSouheill/microtask_backend/middleware"
	"github.com/HSouheill/microtask_backend/models"
	"github.com/HSouheill/microtask_backend/services"
)

// RegisterPaymentRoutes sets up coin purchases and buyer balance operations
func RegisterPaymentRoutes(e *echo.Echo, ids *services.IdentityService, paymentController *controllers.PaymentController) {
	auth := middleware.JWTMiddleware(ids)

	// Public gateway endpoints
	e.POST("/create-payment-intent", paymentController.CreatePaymentIntent)
	e.POST("/payments", paymentController.ConfirmPurchase)

	e.GET("/payments/:email", paymentController.ListPurchases, auth)
	e.PATCH("/refund-coins", paymentController.RefundCoins, auth, middleware.RequireRole(ids, models.RoleBuyer, models.RoleAdmin))
	e.PATCH("/deduct-coins", paymentController.DeductCoins, auth, middleware.RequireRole(ids, models.RoleBuyer))
}
