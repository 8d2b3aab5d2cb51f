package services

import (
	"context"
	"fmt"

	"github.com/HSouheill/microtask_backend/config"
	"github.com/HSouheill/microtask_backend/models"
	"github.com/HSouheill/microtask_backend/repositories"
	"github.com/sirupsen/logrus"
)

// Stores bundles the storage interfaces the workflow services run against.
type Stores struct {
	Users       repositories.UserStore
	Tasks       repositories.TaskStore
	Submissions repositories.SubmissionStore
	Withdrawals repositories.WithdrawalStore
	Payments    repositories.PaymentStore
	// Leaderboard is optional. When set, every coin movement on a worker drops
	// the cached top-workers list.
	Leaderboard repositories.LeaderboardCache
}

// Notifier pushes a best-effort event to a connected user.
type Notifier interface {
	NotifyUser(email, kind, message string, data interface{})
}

type nopNotifier struct{}

func (nopNotifier) NotifyUser(string, string, string, interface{}) {}

// coinLedger is the single path through which services change a coin balance.
type coinLedger struct {
	users repositories.UserStore
	cache repositories.LeaderboardCache
	log   *logrus.Entry
}

func newCoinLedger(stores Stores, log *logrus.Entry) coinLedger {
	return coinLedger{users: stores.Users, cache: stores.Leaderboard, log: log}
}

func (l coinLedger) move(ctx context.Context, email string, delta int64, reason string) (*models.User, error) {
	user, err := l.users.AdjustCoins(ctx, email, delta)
	if err != nil {
		l.log.WithFields(logrus.Fields{"email": email, "delta": delta, "reason": reason}).
			WithError(err).Warn("coin movement refused")
		return nil, err
	}
	direction := "credit"
	amount := delta
	if delta < 0 {
		direction = "debit"
		amount = -delta
	}
	coinsMoved.WithLabelValues(direction, reason).Add(float64(amount))
	l.log.WithFields(logrus.Fields{
		"email":   email,
		"delta":   delta,
		"reason":  reason,
		"balance": user.CoinBalance,
	}).Info("coins moved")
	if user.Role == models.RoleWorker && l.cache != nil {
		if err := l.cache.Invalidate(ctx); err != nil {
			l.log.WithError(err).Warn("leaderboard cache invalidation failed")
		}
	}
	return user, nil
}

// upstream marks err as a partial failure the caller may retry. Only
// models.ErrUpstream stays in the chain so store details never reach the client.
func upstream(err error) error {
	return fmt.Errorf("%w: %v", models.ErrUpstream, err)
}

// compensate runs an undo step and records its outcome. The undo gets a context
// detached from the request's cancellation with its own deadline, so a request
// that timed out mid-workflow still rolls back.
func compensate(ctx context.Context, log *logrus.Entry, workflow string, undo func(context.Context) error) {
	undoCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.CompensationTimeout)
	defer cancel()
	if err := undo(undoCtx); err != nil {
		compensations.WithLabelValues(workflow, "failed").Inc()
		log.WithField("workflow", workflow).WithError(err).Error("compensation failed, manual reconciliation needed")
		return
	}
	compensations.WithLabelValues(workflow, "applied").Inc()
	log.WithField("workflow", workflow).Warn("compensation applied")
}

func newLogger(logger *logrus.Logger, component string) *logrus.Entry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logger.WithField("component", component)
}
