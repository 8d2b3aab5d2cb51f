package services

import (
	"context"
	"errors"
	"strings"

	"github.com/HSouheill/microtask_backend/models"
	"github.com/HSouheill/microtask_backend/repositories"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccountService manages registration, profiles and role changes.
type AccountService struct {
	users       repositories.UserStore
	cache       repositories.LeaderboardCache
	signupCoins map[models.Role]int64
	log         *logrus.Entry
}

// NewAccountService builds the service. cache may be nil.
func NewAccountService(users repositories.UserStore, cache repositories.LeaderboardCache, signupCoins map[models.Role]int64, logger *logrus.Logger) *AccountService {
	return &AccountService{
		users:       users,
		cache:       cache,
		signupCoins: signupCoins,
		log:         newLogger(logger, "accounts"),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EnsureUser registers email once. Repeated calls return the stored user untouched.
// Self-registration may only pick Worker or Buyer; the starting balance is assigned
// here, never taken from the client.
func (s *AccountService) EnsureUser(ctx context.Context, email string, req models.RegisterRequest) (bool, *models.User, error) {
	email = normalizeEmail(email)
	if email == "" || (req.Role != models.RoleWorker && req.Role != models.RoleBuyer) {
		return false, nil, models.ErrInvalidInput
	}
	created, user, err := s.users.Ensure(ctx, &models.User{
		Email:       email,
		Name:        strings.TrimSpace(req.Name),
		PhotoURL:    req.PhotoURL,
		Role:        req.Role,
		CoinBalance: s.signupCoins[req.Role],
	})
	if err != nil {
		return false, nil, upstream(err)
	}
	if created {
		s.log.WithFields(logrus.Fields{"email": email, "role": user.Role, "coins": user.CoinBalance}).Info("user registered")
	}
	return created, user, nil
}

// GetSelf returns the caller's own account. Asking for anyone else reads as not found.
func (s *AccountService) GetSelf(ctx context.Context, caller *Identity, email string) (*models.User, error) {
	if caller == nil || normalizeEmail(email) != caller.Email {
		return nil, models.ErrUserNotFound
	}
	return s.users.GetByEmail(ctx, caller.Email)
}

func (s *AccountService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// ChangeRole is the only way a role changes; callers are gated to Admin.
func (s *AccountService) ChangeRole(ctx context.Context, id primitive.ObjectID, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, models.ErrInvalidInput
	}
	user, err := s.users.SetRole(ctx, id, role)
	if err != nil {
		return nil, err
	}
	s.invalidateLeaderboard(ctx)
	s.log.WithFields(logrus.Fields{"email": user.Email, "role": role}).Info("role changed")
	return user, nil
}

func (s *AccountService) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateLeaderboard(ctx)
	s.log.WithField("userId", id.Hex()).Info("user deleted")
	return nil
}

func (s *AccountService) invalidateLeaderboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.log.WithError(err).Warn("leaderboard invalidation failed")
	}
}
