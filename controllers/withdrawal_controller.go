package controllers

import (
	"net/http"

	"github.com/HSouheill/microtask_backend/middleware"
	"github.com/HSouheill/microtask_backend/models"
	"github.com/HSouheill/microtask_backend/services"
	"github.com/HSouheill/microtask_backend/utils"
	"github.com/labstack/echo/v4"
)

type WithdrawalController struct {
	withdrawals *services.WithdrawalService
}

func NewWithdrawalController(withdrawals *services.WithdrawalService) *WithdrawalController {
	return &WithdrawalController{withdrawals: withdrawals}
}

// RequestWithdrawal handles POST /withdrawals
func (wc *WithdrawalController) RequestWithdrawal(c echo.Context) error {
	var req models.WithdrawalRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	req.WorkerName = utils.SanitizeInput(req.WorkerName)
	req.PaymentSystem = utils.SanitizeInput(req.PaymentSystem)
	req.AccountNumber = utils.SanitizeInput(req.AccountNumber)

	user := middleware.GetUser(c)
	if req.WorkerName == "" {
		req.WorkerName = user.Name
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	w, err := wc.withdrawals.Request(ctx, user.Email, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Withdrawal request submitted",
		Data:    w,
	})
}

// ListWithdrawals handles GET /withdrawals?status=
func (wc *WithdrawalController) ListWithdrawals(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := wc.withdrawals.ListByStatus(ctx, models.WithdrawalStatus(c.QueryParam("status")))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawals retrieved successfully",
		Data:    list,
	})
}

// MyWithdrawals handles GET /my-withdrawals
func (wc *WithdrawalController) MyWithdrawals(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := wc.withdrawals.ListMine(ctx, middleware.GetUser(c).Email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawals retrieved successfully",
		Data:    list,
	})
}

// ApproveWithdrawal handles PATCH /withdrawals/:id/approve
func (wc *WithdrawalController) ApproveWithdrawal(c echo.Context) error {
	id, err := utils.ParseObjectID(c.Param("id"))
	if err != nil {
		return respondError(c, models.ErrWithdrawalNotFound)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	w, payment, err := wc.withdrawals.Approve(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawal approved successfully",
		Data: map[string]interface{}{
			"withdrawal": w,
			"payment":    payment,
		},
	})
}
