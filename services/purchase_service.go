package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/HSouheill/microtask_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PurchaseService couples gateway payments to coin credits, and carries the buyer
// balance operations around task creation.
type PurchaseService struct {
	stores    Stores
	ledger    coinLedger
	processor PaymentProcessor
	currency  string
	log       *logrus.Entry
}

func NewPurchaseService(stores Stores, processor PaymentProcessor, currency string, logger *logrus.Logger) *PurchaseService {
	log := newLogger(logger, "purchases")
	return &PurchaseService{
		stores:    stores,
		ledger:    newCoinLedger(stores, log),
		processor: processor,
		currency:  currency,
		log:       log,
	}
}

// CreatePaymentIntent is a passthrough to the gateway; nothing is recorded until the
// purchase is confirmed.
func (s *PurchaseService) CreatePaymentIntent(ctx context.Context, amount int64) (string, error) {
	if amount <= 0 {
		return "", models.ErrInvalidInput
	}
	secret, err := s.processor.CreatePaymentIntent(ctx, amount, s.currency)
	if err != nil {
		s.log.WithError(err).WithField("amount", amount).Error("payment intent failed")
		return "", upstream(err)
	}
	return secret, nil
}

// ConfirmPurchase appends the purchase record as pending, credits the coins and then
// marks the record credited. A confirmation for a transaction that is already
// credited returns the stored record and credits nothing; one that is still pending
// fails as retryable. If the credit fails the record is removed again so the caller
// can retry.
func (s *PurchaseService) ConfirmPurchase(ctx context.Context, req models.PurchaseRequest) (*models.PaymentData, bool, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil || price.IsNegative() || req.CoinsPurchased <= 0 {
		return nil, false, models.ErrInvalidInput
	}
	email := normalizeEmail(req.Email)
	if _, err := s.stores.Users.GetByEmail(ctx, email); err != nil {
		return nil, false, err
	}

	txID := strings.TrimSpace(req.TransactionID)
	if txID != "" {
		existing, err := s.stores.Payments.FindPurchaseByTransaction(ctx, txID)
		if err == nil {
			return s.settled(existing)
		}
		if !errors.Is(err, models.ErrPurchaseNotFound) {
			return nil, false, upstream(err)
		}
	}

	record := &models.PaymentData{
		Email:          email,
		Price:          price.Round(2).InexactFloat64(),
		CoinsPurchased: req.CoinsPurchased,
		TransactionID:  txID,
		Timestamp:      time.Now(),
		Pending:        true,
	}
	if err := s.stores.Payments.AppendPurchase(ctx, record); err != nil {
		if errors.Is(err, models.ErrDuplicatePurchase) {
			existing, findErr := s.stores.Payments.FindPurchaseByTransaction(ctx, txID)
			if findErr != nil {
				return nil, false, upstream(findErr)
			}
			return s.settled(existing)
		}
		return nil, false, upstream(err)
	}

	if _, err := s.ledger.move(ctx, email, req.CoinsPurchased, "purchase"); err != nil {
		compensate(ctx, s.log, "confirm_purchase", func(ctx context.Context) error {
			return s.stores.Payments.DeletePurchase(ctx, record.ID)
		})
		return nil, false, upstream(err)
	}
	if err := s.stores.Payments.MarkPurchaseCredited(ctx, record.ID); err != nil {
		compensate(ctx, s.log, "confirm_purchase", func(ctx context.Context) error {
			if _, debitErr := s.ledger.move(ctx, email, -req.CoinsPurchased, "purchase_reverted"); debitErr != nil {
				return debitErr
			}
			return s.stores.Payments.DeletePurchase(ctx, record.ID)
		})
		return nil, false, upstream(err)
	}
	record.Pending = false

	s.log.WithFields(logrus.Fields{
		"email":         email,
		"coins":         record.CoinsPurchased,
		"price":         price.StringFixed(2),
		"transactionId": txID,
	}).Info("purchase confirmed")
	return record, true, nil
}

// settled answers a repeated confirmation. Until the first confirmation has
// credited the coins the outcome is unknown, so the caller is told to retry.
func (s *PurchaseService) settled(existing *models.PaymentData) (*models.PaymentData, bool, error) {
	if existing.Pending {
		s.log.WithField("transactionId", existing.TransactionID).Info("purchase confirmation still in flight")
		return nil, false, upstream(models.ErrPurchasePending)
	}
	return existing, false, nil
}

// ListPurchases returns the caller's own purchase history.
func (s *PurchaseService) ListPurchases(ctx context.Context, caller *Identity, email string) ([]models.PaymentData, error) {
	if caller == nil || normalizeEmail(email) != caller.Email {
		return nil, models.ErrForbidden
	}
	return s.stores.Payments.ListPurchases(ctx, caller.Email)
}

// RefundToBalance brings the task buyer's balance to amount. Buyers may only refund
// against their own tasks.
func (s *PurchaseService) RefundToBalance(ctx context.Context, caller *models.User, taskID primitive.ObjectID, amount int64) (*models.User, error) {
	if amount < 0 {
		return nil, models.ErrInvalidInput
	}
	task, err := s.stores.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if caller.Role != models.RoleAdmin && task.BuyerEmail != caller.Email {
		return nil, models.ErrTaskNotFound
	}
	user, err := s.stores.Users.SetCoins(ctx, task.BuyerEmail, amount)
	if err != nil {
		if errors.Is(err, models.ErrStatusConflict) {
			return nil, upstream(err)
		}
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"email": task.BuyerEmail, "taskId": taskID.Hex(), "balance": amount, "by": caller.Email}).
		Info("balance refunded")
	return user, nil
}

// DeductForTaskCreation pre-pays a task's total cost from the buyer's balance.
func (s *PurchaseService) DeductForTaskCreation(ctx context.Context, email string, total int64) (*models.User, error) {
	if total <= 0 {
		return nil, models.ErrInvalidInput
	}
	return s.ledger.move(ctx, email, -total, "task_prepay")
}
