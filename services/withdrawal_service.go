package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/HSouheill/microtask_backend/config"
	"github.com/HSouheill/microtask_backend/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const EventWithdrawalApproved = "withdrawal_approved"

// WithdrawalService handles cash-out requests. Requests are accepted without looking
// at the balance; the balance is checked and debited only on approval.
type WithdrawalService struct {
	stores   Stores
	ledger   coinLedger
	notifier Notifier
	log      *logrus.Entry
}

// NewWithdrawalService builds the service. notifier may be nil.
func NewWithdrawalService(stores Stores, notifier Notifier, logger *logrus.Logger) *WithdrawalService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	log := newLogger(logger, "withdrawals")
	return &WithdrawalService{
		stores:   stores,
		ledger:   newCoinLedger(stores, log),
		notifier: notifier,
		log:      log,
	}
}

func (s *WithdrawalService) Request(ctx context.Context, workerEmail string, req models.WithdrawalRequest) (*models.Withdrawal, error) {
	if workerEmail == "" || req.WithdrawalCoins < config.MinWithdrawalCoins {
		return nil, models.ErrBelowMinimum
	}
	if strings.TrimSpace(req.PaymentSystem) == "" {
		return nil, models.ErrInvalidInput
	}
	w := &models.Withdrawal{
		WorkerEmail:     workerEmail,
		WorkerName:      strings.TrimSpace(req.WorkerName),
		WithdrawalCoins: req.WithdrawalCoins,
		PaymentSystem:   strings.TrimSpace(req.PaymentSystem),
		AccountNumber:   strings.TrimSpace(req.AccountNumber),
		Status:          models.WithdrawalPending,
		WithdrawDate:    time.Now(),
	}
	if err := s.stores.Withdrawals.Create(ctx, w); err != nil {
		return nil, upstream(err)
	}
	transitions.WithLabelValues("withdrawal", string(models.WithdrawalPending)).Inc()
	s.log.WithFields(logrus.Fields{"withdrawalId": w.ID.Hex(), "worker": workerEmail, "coins": w.WithdrawalCoins}).
		Info("withdrawal requested")
	return w, nil
}

// Approve claims the request, debits the worker and appends the payout record. If the
// debit is refused the claim is released and the request stays pending with no
// payout written; if the payout cannot be written the coins are returned as well.
func (s *WithdrawalService) Approve(ctx context.Context, id primitive.ObjectID) (*models.Withdrawal, *models.Payment, error) {
	w, err := s.stores.Withdrawals.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if w.Status != models.WithdrawalPending {
		return nil, nil, models.ErrAlreadyApproved
	}

	approved, err := s.stores.Withdrawals.Transition(ctx, id, models.WithdrawalPending, models.WithdrawalApproved)
	if errors.Is(err, models.ErrStatusConflict) {
		return nil, nil, models.ErrAlreadyApproved
	}
	if err != nil {
		return nil, nil, err
	}
	release := func(ctx context.Context) error {
		_, revErr := s.stores.Withdrawals.Transition(ctx, id, models.WithdrawalApproved, models.WithdrawalPending)
		return revErr
	}

	if _, err := s.ledger.move(ctx, approved.WorkerEmail, -approved.WithdrawalCoins, "withdrawal_approved"); err != nil {
		compensate(ctx, s.log, "approve_withdrawal", release)
		if errors.Is(err, models.ErrInsufficientBalance) || errors.Is(err, models.ErrUserNotFound) {
			return nil, nil, err
		}
		return nil, nil, upstream(err)
	}

	payment := &models.Payment{
		WithdrawalID:     approved.ID,
		Name:             approved.WorkerName,
		Email:            approved.WorkerEmail,
		Role:             models.RoleWorker,
		WithdrawalAmount: approved.WithdrawalCoins,
		PaymentSystem:    approved.PaymentSystem,
		WithdrawDate:     approved.WithdrawDate,
		ApprovedDate:     time.Now(),
	}
	if err := s.stores.Payments.AppendPayout(ctx, payment); err != nil {
		compensate(ctx, s.log, "approve_withdrawal", func(ctx context.Context) error {
			if _, credErr := s.ledger.move(ctx, approved.WorkerEmail, approved.WithdrawalCoins, "withdrawal_reverted"); credErr != nil {
				return credErr
			}
			return release(ctx)
		})
		return nil, nil, upstream(err)
	}

	transitions.WithLabelValues("withdrawal", string(models.WithdrawalApproved)).Inc()
	s.log.WithFields(logrus.Fields{
		"withdrawalId": id.Hex(),
		"worker":       approved.WorkerEmail,
		"coins":        approved.WithdrawalCoins,
		"paymentId":    payment.ID.Hex(),
	}).Info("withdrawal approved")
	s.notifier.NotifyUser(approved.WorkerEmail, EventWithdrawalApproved, "Your withdrawal was approved", approved)
	return approved, payment, nil
}

func (s *WithdrawalService) ListByStatus(ctx context.Context, status models.WithdrawalStatus) ([]models.Withdrawal, error) {
	if status != "" && status != models.WithdrawalPending && status != models.WithdrawalApproved {
		return nil, models.ErrInvalidInput
	}
	return s.stores.Withdrawals.ListByStatus(ctx, status)
}

func (s *WithdrawalService) ListMine(ctx context.Context, workerEmail string) ([]models.Withdrawal, error) {
	return s.stores.Withdrawals.ListByWorker(ctx, workerEmail)
}
