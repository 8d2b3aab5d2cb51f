package controllers

import (
	"net/http"

	"github.com/HSouheill/microtask_backend/middleware"
	"github.com/HSouheill/microtask_backend/models"
	"github.com/HSouheill/microtask_backend/services"
	"github.com/labstack/echo/v4"
)

// StatusController serves the dashboard aggregates
type StatusController struct {
	reporting *services.ReportingService
}

func NewStatusController(reporting *services.ReportingService) *StatusController {
	return &StatusController{reporting: reporting}
}

// AdminStatus handles GET /admin-status
func (sc *StatusController) AdminStatus(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	status, err := sc.reporting.AdminStatus(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{Status: http.StatusOK, Message: "OK", Data: status})
}

// WorkerStatus handles GET /worker-status
func (sc *StatusController) WorkerStatus(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	status, err := sc.reporting.WorkerStatus(ctx, middleware.GetUser(c).Email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{Status: http.StatusOK, Message: "OK", Data: status})
}

// BuyerStatus handles GET /buyer-status
func (sc *StatusController) BuyerStatus(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	status, err := sc.reporting.BuyerStatus(ctx, middleware.GetUser(c).Email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{Status: http.StatusOK, Message: "OK", Data: status})
}

// TopWorkers handles GET /top-workers
func (sc *StatusController) TopWorkers(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := sc.reporting.TopWorkers(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Top workers retrieved successfully",
		Data:    users,
	})
}

// Health handles GET /health
func (sc *StatusController) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}
