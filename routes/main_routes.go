package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/microtask_backend/controllers"
	"github.com/HSouheill/microtask_backend/services"
	"github.com/HSouheill/microtask_backend/websocket"
)

// Controllers bundles the handlers the routes are registered against
type Controllers struct {
	Auth        *controllers.AuthController
	Users       *controllers.UserController
	Tasks       *controllers.TaskController
	Submissions *controllers.SubmissionController
	Withdrawals *controllers.WithdrawalController
	Payments    *controllers.PaymentController
	Status      *controllers.StatusController
}

// SetupRoutes configures all API routes by calling individual route registration functions
func SetupRoutes(e *echo.Echo, ids *services.IdentityService, ctrl Controllers, ws *websocket.Handler, metrics http.Handler) {
	e.Match([]string{http.MethodGet, http.MethodHead}, "/health", ctrl.Status.Health)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
	if ws != nil {
		e.GET("/ws", ws.HandleWebSocket)
	}

	RegisterAuthRoutes(e, ctrl.Auth)
	RegisterUserRoutes(e, ids, ctrl.Users)
	RegisterTaskRoutes(e, ids, ctrl.Tasks, ctrl.Submissions)
	RegisterPaymentRoutes(e, ids, ctrl.Payments)
	RegisterAdminRoutes(e, ids, ctrl.Withdrawals, ctrl.Status)
}
