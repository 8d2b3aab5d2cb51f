package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/microtask_backend/controllers"
	"github.com/HSouheill/microtask_backend/middleware"
	"github.com/HSouheill/microtask_backend/models"
	"github.com/HSouheill/microtask_backend/services"
)

// RegisterTaskRoutes sets up the task registry and the submission workflow
func RegisterTaskRoutes(e *echo.Echo, ids *services.IdentityService, taskController *controllers.TaskController, submissionController *controllers.SubmissionController) {
	auth := middleware.JWTMiddleware(ids)
	anyUser := middleware.RequireRole(ids)
	buyer := middleware.RequireRole(ids, models.RoleBuyer)
	buyerOrAdmin := middleware.RequireRole(ids, models.RoleBuyer, models.RoleAdmin)

	// Tasks
	e.GET("/tasks", taskController.ListTasks)
	e.GET("/tasks/:id", taskController.GetTask)
	e.POST("/tasks", taskController.CreateTask, auth, buyer)
	e.PATCH("/tasks/:id", taskController.UpdateTask, auth, buyerOrAdmin)
	e.DELETE("/tasks/:id", taskController.DeleteTask, auth, buyerOrAdmin)

	// Submissions
	e.POST("/submissions", submissionController.Submit, auth, anyUser)
	e.GET("/my-submissions", submissionController.MySubmissions, auth, anyUser)
	e.GET("/pending-submissions", submissionController.PendingSubmissions, auth, buyer)
	e.GET("/approved-submissions", submissionController.ApprovedSubmissions, auth, anyUser)
	e.PATCH("/approve-submission/:id", submissionController.ApproveSubmission, auth, buyer)
	e.PATCH("/reject-submission/:id", submissionController.RejectSubmission, auth, buyer)
}
