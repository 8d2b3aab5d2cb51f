package controllers

import (
	"net/http"

	"github.com/HSouheill/microtask_backend/middleware"
	"github.com/HSouheill/microtask_backend/models"
	"github.com/HSouheill/microtask_backend/services"
	"github.com/HSouheill/microtask_backend/utils"
	"github.com/labstack/echo/v4"
)

type PaymentController struct {
	purchases *services.PurchaseService
}

func NewPaymentController(purchases *services.PurchaseService) *PaymentController {
	return &PaymentController{purchases: purchases}
}

// CreatePaymentIntent handles POST /create-payment-intent
func (pc *PaymentController) CreatePaymentIntent(c echo.Context) error {
	var req models.PaymentIntentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	secret, err := pc.purchases.CreatePaymentIntent(ctx, req.Amount)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payment intent created",
		Data:    map[string]string{"clientSecret": secret},
	})
}

// ConfirmPurchase handles POST /payments
func (pc *PaymentController) ConfirmPurchase(c echo.Context) error {
	var req models.PurchaseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	record, created, err := pc.purchases.ConfirmPurchase(ctx, req)
	if err != nil {
		return respondError(c, err)
	}
	if !created {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Purchase already recorded",
			Data:    record,
		})
	}
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Purchase recorded successfully",
		Data:    record,
	})
}

// ListPurchases handles GET /payments/:email
func (pc *PaymentController) ListPurchases(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	records, err := pc.purchases.ListPurchases(ctx, middleware.GetIdentity(c), c.Param("email"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payments retrieved successfully",
		Data:    records,
	})
}

// RefundCoins handles PATCH /refund-coins
func (pc *PaymentController) RefundCoins(c echo.Context) error {
	var req models.RefundRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	taskID, err := utils.ParseObjectID(req.TaskID)
	if err != nil {
		return respondError(c, models.ErrTaskNotFound)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := pc.purchases.RefundToBalance(ctx, middleware.GetUser(c), taskID, req.Amount)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Coins refunded successfully",
		Data:    user,
	})
}

// DeductCoins handles PATCH /deduct-coins
func (pc *PaymentController) DeductCoins(c echo.Context) error {
	var req models.DeductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := pc.purchases.DeductForTaskCreation(ctx, middleware.GetUser(c).Email, req.TotalPayableAmount)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Coins deducted successfully",
		Data:    user,
	})
}
