package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/microtask_backend/controllers"
	"github.com/HSouheill/microtask_backend/middleware"
	"github.com/HSouheill/microtask_backend/models"
	"github.com/HSouheill/microtask_backend/services"
)

// RegisterAdminRoutes sets up withdrawals and the dashboard views
func RegisterAdminRoutes(e *echo.Echo, ids *services.IdentityService, withdrawalController *controllers.WithdrawalController, statusController *controllers.StatusController) {
	auth := middleware.JWTMiddleware(ids)
	anyUser := middleware.RequireRole(ids)
	admin := middleware.RequireRole(ids, models.RoleAdmin)
	worker := middleware.RequireRole(ids, models.RoleWorker)
	buyer := middleware.RequireRole(ids, models.RoleBuyer)

	// Withdrawals
	e.GET("/withdrawals", withdrawalController.ListWithdrawals, auth, admin)
	e.POST("/withdrawals", withdrawalController.RequestWithdrawal, auth, worker)
	e.GET("/my-withdrawals", withdrawalController.MyWithdrawals, auth, worker)
	e.PATCH("/withdrawals/:id/approve", withdrawalController.ApproveWithdrawal, auth, admin)

	// Dashboards
	e.GET("/top-workers", statusController.TopWorkers)
	e.GET("/admin-status", statusController.AdminStatus, auth, middleware.RequireRole(ids, models.RoleBuyer, models.RoleAdmin))
	e.GET("/worker-status", statusController.WorkerStatus, auth, anyUser)
	e.GET("/buyer-status", statusController.BuyerStatus, auth, buyer)
}
