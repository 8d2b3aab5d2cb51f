package services

import (
	"context"

	"github.com/HSouheill/microtask_backend/config"
	"github.com/HSouheill/microtask_backend/models"
	"github.com/HSouheill/microtask_backend/repositories"
	"github.com/sirupsen/logrus"
)

// ReportingService computes the read-only dashboard aggregates. Totals are taken
// from independent queries and are not a point-in-time snapshot.
type ReportingService struct {
	stores Stores
	cache  repositories.LeaderboardCache
	log    *logrus.Entry
}

// NewReportingService builds the service. cache may be nil.
func NewReportingService(stores Stores, cache repositories.LeaderboardCache, logger *logrus.Logger) *ReportingService {
	return &ReportingService{stores: stores, cache: cache, log: newLogger(logger, "reporting")}
}

func (s *ReportingService) AdminStatus(ctx context.Context) (*models.AdminStatus, error) {
	workers, err := s.stores.Users.CountByRole(ctx, models.RoleWorker)
	if err != nil {
		return nil, upstream(err)
	}
	buyers, err := s.stores.Users.CountByRole(ctx, models.RoleBuyer)
	if err != nil {
		return nil, upstream(err)
	}
	coins, err := s.stores.Users.SumCoins(ctx)
	if err != nil {
		return nil, upstream(err)
	}
	paid, err := s.stores.Payments.SumPayouts(ctx, "")
	if err != nil {
		return nil, upstream(err)
	}
	return &models.AdminStatus{
		TotalWorkers:        workers,
		TotalBuyers:         buyers,
		TotalAvailableCoins: coins,
		TotalPayments:       paid,
	}, nil
}

func (s *ReportingService) WorkerStatus(ctx context.Context, email string) (*models.WorkerStatus, error) {
	total, err := s.stores.Submissions.Count(ctx, models.SubmissionFilter{WorkerEmail: email})
	if err != nil {
		return nil, upstream(err)
	}
	pending, err := s.stores.Submissions.Count(ctx, models.SubmissionFilter{WorkerEmail: email, Status: models.SubmissionPending})
	if err != nil {
		return nil, upstream(err)
	}
	earned, err := s.stores.Payments.SumPayouts(ctx, email)
	if err != nil {
		return nil, upstream(err)
	}
	return &models.WorkerStatus{
		TotalSubmissions:        total,
		TotalPendingSubmissions: pending,
		TotalEarnings:           earned,
	}, nil
}

// BuyerStatus reports pendingTasks as the sum of open slots across the buyer's tasks.
func (s *ReportingService) BuyerStatus(ctx context.Context, email string) (*models.BuyerStatus, error) {
	tasks, err := s.stores.Tasks.CountByBuyer(ctx, email)
	if err != nil {
		return nil, upstream(err)
	}
	slots, err := s.stores.Tasks.SumRequiredWorkers(ctx, email)
	if err != nil {
		return nil, upstream(err)
	}
	spent, err := s.stores.Payments.SumPurchasePrice(ctx, email)
	if err != nil {
		return nil, upstream(err)
	}
	return &models.BuyerStatus{TotalTasks: tasks, PendingTasks: slots, TotalPayments: spent}, nil
}

// TopWorkers returns the richest workers, served from the cache while it is fresh.
func (s *ReportingService) TopWorkers(ctx context.Context) ([]models.User, error) {
	if s.cache != nil {
		if users, ok := s.cache.Get(ctx); ok {
			return users, nil
		}
	}
	users, err := s.stores.Users.ListByRole(ctx, models.RoleWorker, config.TopWorkersLimit)
	if err != nil {
		return nil, upstream(err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, users); err != nil {
			s.log.WithError(err).Warn("leaderboard cache write failed")
		}
	}
	return users, nil
}
