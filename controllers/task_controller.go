package controllers

import (
	"net/http"

	"github.com/HSouheill/microtask_backend/middleware"
	"github.com/HSouheill/microtask_backend/models"
	"github.com/HSouheill/microtask_backend/services"
	"github.com/HSouheill/microtask_backend/utils"
	"github.com/labstack/echo/v4"
)

type TaskController struct {
	tasks *services.TaskService
}

func NewTaskController(tasks *services.TaskService) *TaskController {
	return &TaskController{tasks: tasks}
}

// CreateTask handles POST /tasks
func (tc *TaskController) CreateTask(c echo.Context) error {
	var req models.CreateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	req.Title = utils.SanitizeInput(req.Title)
	req.Detail = utils.SanitizeInput(req.Detail)
	req.SubmissionInfo = utils.SanitizeInput(req.SubmissionInfo)

	ctx, cancel := requestContext(c)
	defer cancel()

	task, err := tc.tasks.CreateTask(ctx, middleware.GetUser(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Task created successfully",
		Data:    task,
	})
}

// ListTasks handles GET /tasks. With ?email= it lists that buyer's tasks, otherwise
// every task that still has open slots.
func (tc *TaskController) ListTasks(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	var (
		tasks []models.Task
		err   error
	)
	if email := c.QueryParam("email"); email != "" {
		tasks, err = tc.tasks.ListByBuyer(ctx, email)
	} else {
		tasks, err = tc.tasks.ListOpen(ctx)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Tasks retrieved successfully",
		Data:    tasks,
	})
}

// GetTask handles GET /tasks/:id
func (tc *TaskController) GetTask(c echo.Context) error {
	id, err := utils.ParseObjectID(c.Param("id"))
	if err != nil {
		return respondError(c, models.ErrTaskNotFound)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	task, err := tc.tasks.Get(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Task retrieved successfully",
		Data:    task,
	})
}

// UpdateTask handles PATCH /tasks/:id
func (tc *TaskController) UpdateTask(c echo.Context) error {
	id, err := utils.ParseObjectID(c.Param("id"))
	if err != nil {
		return respondError(c, models.ErrTaskNotFound)
	}
	var update models.TaskUpdate
	if err := bindAndValidate(c, &update); err != nil {
		return respondError(c, err)
	}
	for _, field := range []*string{update.Title, update.Detail, update.SubmissionInfo} {
		if field != nil {
			*field = utils.SanitizeInput(*field)
		}
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	task, err := tc.tasks.UpdateTask(ctx, middleware.GetUser(c), id, update)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Task updated successfully",
		Data:    task,
	})
}

// DeleteTask handles DELETE /tasks/:id
func (tc *TaskController) DeleteTask(c echo.Context) error {
	id, err := utils.ParseObjectID(c.Param("id"))
	if err != nil {
		return respondError(c, models.ErrTaskNotFound)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := tc.tasks.DeleteTask(ctx, middleware.GetUser(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Task deleted successfully",
	})
}
