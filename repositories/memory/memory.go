// Package memory is an in-memory implementation of the repositories interfaces. It is
// safe for concurrent use and is intended for tests and local development.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/HSouheill/microtask_backend/models"
	"github.com/HSouheill/microtask_backend/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds every collection behind one lock, which makes each method a single
// atomic read-modify-write.
type Store struct {
	mu          sync.RWMutex
	users       map[primitive.ObjectID]models.User
	usersEmail  map[string]primitive.ObjectID
	tasks       map[primitive.ObjectID]models.Task
	submissions map[primitive.ObjectID]models.Submission
	withdrawals map[primitive.ObjectID]models.Withdrawal
	payouts     map[primitive.ObjectID]models.Payment
	purchases   map[primitive.ObjectID]models.PaymentData
}

// New creates an empty store.
func New() *Store {
	return &Store{
		users:       make(map[primitive.ObjectID]models.User),
		usersEmail:  make(map[string]primitive.ObjectID),
		tasks:       make(map[primitive.ObjectID]models.Task),
		submissions: make(map[primitive.ObjectID]models.Submission),
		withdrawals: make(map[primitive.ObjectID]models.Withdrawal),
		payouts:     make(map[primitive.ObjectID]models.Payment),
		purchases:   make(map[primitive.ObjectID]models.PaymentData),
	}
}

// Users, Tasks, Submissions, Withdrawals and Payments expose the store through the
// per-collection interfaces, whose method names overlap.
func (s *Store) Users() repositories.UserStore             { return (*userStore)(s) }
func (s *Store) Tasks() repositories.TaskStore             { return (*taskStore)(s) }
func (s *Store) Submissions() repositories.SubmissionStore { return (*submissionStore)(s) }
func (s *Store) Withdrawals() repositories.WithdrawalStore { return (*withdrawalStore)(s) }
func (s *Store) Payments() repositories.PaymentStore       { return (*paymentStore)(s) }

// Users ----------------------------------------------------------------------

type userStore Store

var _ repositories.UserStore = (*userStore)(nil)

func (s *userStore) Ensure(_ context.Context, user *models.User) (bool, *models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.usersEmail[user.Email]; ok {
		stored := s.users[id]
		return false, &stored, nil
	}
	u := *user
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	s.users[u.ID] = u
	s.usersEmail[u.Email] = u.ID
	return true, &u, nil
}

func (s *userStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byEmailLocked(email)
}

func (s *userStore) byEmailLocked(email string) (*models.User, error) {
	id, ok := s.usersEmail[email]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *userStore) List(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b models.User) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (s *userStore) ListByRole(_ context.Context, role models.Role, limit int64) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0)
	for _, u := range s.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b models.User) int { return cmp.Compare(b.CoinBalance, a.CoinBalance) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *userStore) AdjustCoins(_ context.Context, email string, delta int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.byEmailLocked(email)
	if err != nil {
		return nil, err
	}
	if u.CoinBalance+delta < 0 {
		return nil, models.ErrInsufficientBalance
	}
	u.CoinBalance += delta
	u.UpdatedAt = time.Now()
	s.users[u.ID] = *u
	return u, nil
}

func (s *userStore) SetCoins(_ context.Context, email string, value int64) (*models.User, error) {
	if value < 0 {
		return nil, models.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.byEmailLocked(email)
	if err != nil {
		return nil, err
	}
	u.CoinBalance = value
	u.UpdatedAt = time.Now()
	s.users[u.ID] = *u
	return u, nil
}

func (s *userStore) SetRole(_ context.Context, id primitive.ObjectID, role models.Role) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return &u, nil
}

func (s *userStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.ErrUserNotFound
	}
	delete(s.users, id)
	delete(s.usersEmail, u.Email)
	return nil
}

func (s *userStore) CountByRole(_ context.Context, role models.Role) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, u := range s.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (s *userStore) SumCoins(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, u := range s.users {
		total += u.CoinBalance
	}
	return total, nil
}

// Tasks ----------------------------------------------------------------------

type taskStore Store

var _ repositories.TaskStore = (*taskStore)(nil)

func (s *taskStore) Create(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	s.tasks[task.ID] = *task
	return nil
}

func (s *taskStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, models.ErrTaskNotFound
	}
	return &t, nil
}

func (s *taskStore) ListOpen(_ context.Context) ([]models.Task, error) {
	return s.list(func(t models.Task) bool { return t.RequiredWorkers > 0 }), nil
}

func (s *taskStore) ListByBuyer(_ context.Context, email string) ([]models.Task, error) {
	return s.list(func(t models.Task) bool { return t.BuyerEmail == email }), nil
}

func (s *taskStore) list(keep func(models.Task) bool) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Task, 0)
	for _, t := range s.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b models.Task) int { return b.CompletionDate.Compare(a.CompletionDate) })
	return out
}

func (s *taskStore) Update(_ context.Context, id primitive.ObjectID, update models.TaskUpdate) (*models.Task, error) {
	return s.mutate(id, func(t *models.Task) error {
		if update.Title != nil {
			t.Title = *update.Title
		}
		if update.Detail != nil {
			t.Detail = *update.Detail
		}
		if update.SubmissionInfo != nil {
			t.SubmissionInfo = *update.SubmissionInfo
		}
		return nil
	})
}

func (s *taskStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return models.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *taskStore) ConsumeSlot(_ context.Context, id primitive.ObjectID) (*models.Task, error) {
	return s.mutate(id, func(t *models.Task) error {
		if t.RequiredWorkers <= 0 {
			return models.ErrSlotUnavailable
		}
		t.RequiredWorkers--
		return nil
	})
}

func (s *taskStore) ReleaseSlot(_ context.Context, id primitive.ObjectID) (*models.Task, error) {
	return s.mutate(id, func(t *models.Task) error {
		t.RequiredWorkers++
		return nil
	})
}

func (s *taskStore) mutate(id primitive.ObjectID, fn func(*models.Task) error) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, models.ErrTaskNotFound
	}
	if err := fn(&t); err != nil {
		return nil, err
	}
	t.UpdatedAt = time.Now()
	s.tasks[id] = t
	return &t, nil
}

func (s *taskStore) CountByBuyer(ctx context.Context, email string) (int64, error) {
	tasks, _ := s.ListByBuyer(ctx, email)
	return int64(len(tasks)), nil
}

func (s *taskStore) SumRequiredWorkers(ctx context.Context, email string) (int64, error) {
	tasks, _ := s.ListByBuyer(ctx, email)
	var total int64
	for _, t := range tasks {
		total += t.RequiredWorkers
	}
	return total, nil
}

// Submissions ----------------------------------------------------------------

type submissionStore Store

var _ repositories.SubmissionStore = (*submissionStore)(nil)

func (s *submissionStore) Create(_ context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}
	sub.UpdatedAt = time.Now()
	s.submissions[sub.ID] = *sub
	return nil
}

func (s *submissionStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[id]
	if !ok {
		return nil, models.ErrSubmissionNotFound
	}
	return &sub, nil
}

func (s *submissionStore) Transition(_ context.Context, id primitive.ObjectID, from, to models.SubmissionStatus) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[id]
	if !ok {
		return nil, models.ErrSubmissionNotFound
	}
	if sub.Status != from {
		return nil, models.ErrStatusConflict
	}
	sub.Status = to
	sub.UpdatedAt = time.Now()
	s.submissions[id] = sub
	return &sub, nil
}

func (s *submissionStore) List(_ context.Context, filter models.SubmissionFilter) ([]models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Submission, 0)
	for _, sub := range s.submissions {
		if matchSubmission(sub, filter) {
			out = append(out, sub)
		}
	}
	slices.SortFunc(out, func(a, b models.Submission) int { return b.CurrentDate.Compare(a.CurrentDate) })
	return out, nil
}

func (s *submissionStore) Count(ctx context.Context, filter models.SubmissionFilter) (int64, error) {
	subs, _ := s.List(ctx, filter)
	return int64(len(subs)), nil
}

func matchSubmission(sub models.Submission, f models.SubmissionFilter) bool {
	return (f.WorkerEmail == "" || sub.WorkerEmail == f.WorkerEmail) &&
		(f.BuyerEmail == "" || sub.BuyerEmail == f.BuyerEmail) &&
		(f.Status == "" || sub.Status == f.Status)
}

// Withdrawals ----------------------------------------------------------------

type withdrawalStore Store

var _ repositories.WithdrawalStore = (*withdrawalStore)(nil)

func (s *withdrawalStore) Create(_ context.Context, w *models.Withdrawal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID.IsZero() {
		w.ID = primitive.NewObjectID()
	}
	s.withdrawals[w.ID] = *w
	return nil
}

func (s *withdrawalStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.withdrawals[id]
	if !ok {
		return nil, models.ErrWithdrawalNotFound
	}
	return &w, nil
}

func (s *withdrawalStore) Transition(_ context.Context, id primitive.ObjectID, from, to models.WithdrawalStatus) (*models.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdrawals[id]
	if !ok {
		return nil, models.ErrWithdrawalNotFound
	}
	if w.Status != from {
		return nil, models.ErrStatusConflict
	}
	w.Status = to
	if to == models.WithdrawalPending {
		w.ProcessedAt = nil
	} else {
		now := time.Now()
		w.ProcessedAt = &now
	}
	s.withdrawals[id] = w
	return &w, nil
}

func (s *withdrawalStore) ListByStatus(_ context.Context, status models.WithdrawalStatus) ([]models.Withdrawal, error) {
	return s.list(func(w models.Withdrawal) bool { return status == "" || w.Status == status }), nil
}

func (s *withdrawalStore) ListByWorker(_ context.Context, email string) ([]models.Withdrawal, error) {
	return s.list(func(w models.Withdrawal) bool { return w.WorkerEmail == email }), nil
}

func (s *withdrawalStore) list(keep func(models.Withdrawal) bool) []models.Withdrawal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Withdrawal, 0)
	for _, w := range s.withdrawals {
		if keep(w) {
			out = append(out, w)
		}
	}
	slices.SortFunc(out, func(a, b models.Withdrawal) int { return b.WithdrawDate.Compare(a.WithdrawDate) })
	return out
}

// Payments -------------------------------------------------------------------

type paymentStore Store

var _ repositories.PaymentStore = (*paymentStore)(nil)

func (s *paymentStore) AppendPayout(_ context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.payouts {
		if existing.WithdrawalID == p.WithdrawalID {
			return models.ErrDuplicatePayout
		}
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.payouts[p.ID] = *p
	return nil
}

func (s *paymentStore) SumPayouts(_ context.Context, email string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, p := range s.payouts {
		if email == "" || p.Email == email {
			total += p.WithdrawalAmount
		}
	}
	return total, nil
}

// Payouts returns every payout for a worker; used by tests.
func (s *Store) Payouts(email string) []models.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Payment, 0)
	for _, p := range s.payouts {
		if p.Email == email {
			out = append(out, p)
		}
	}
	return out
}

func (s *paymentStore) AppendPurchase(_ context.Context, p *models.PaymentData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.TransactionID != "" {
		for _, existing := range s.purchases {
			if existing.TransactionID == p.TransactionID {
				return models.ErrDuplicatePurchase
			}
		}
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.purchases[p.ID] = *p
	return nil
}

func (s *paymentStore) MarkPurchaseCredited(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases[id]
	if !ok {
		return models.ErrPurchaseNotFound
	}
	p.Pending = false
	s.purchases[id] = p
	return nil
}

func (s *paymentStore) DeletePurchase(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.purchases, id)
	return nil
}

func (s *paymentStore) FindPurchaseByTransaction(_ context.Context, transactionID string) (*models.PaymentData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.purchases {
		if p.TransactionID == transactionID {
			return &p, nil
		}
	}
	return nil, models.ErrPurchaseNotFound
}

func (s *paymentStore) ListPurchases(_ context.Context, email string) ([]models.PaymentData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.PaymentData, 0)
	for _, p := range s.purchases {
		if p.Email == email && !p.Pending {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b models.PaymentData) int { return b.Timestamp.Compare(a.Timestamp) })
	return out, nil
}

func (s *paymentStore) SumPurchasePrice(_ context.Context, email string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total float64
	for _, p := range s.purchases {
		if p.Email == email && !p.Pending {
			total += p.Price
		}
	}
	return total, nil
}
