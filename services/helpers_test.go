package services

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/HSouheill/microtask_backend/models"
	"github.com/HSouheill/microtask_backend/repositories"
	"github.com/HSouheill/microtask_backend/repositories/memory"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestStores() (*memory.Store, Stores) {
	store := memory.New()
	return store, Stores{
		Users:       store.Users(),
		Tasks:       store.Tasks(),
		Submissions: store.Submissions(),
		Withdrawals: store.Withdrawals(),
		Payments:    store.Payments(),
	}
}

func seedUser(t *testing.T, stores Stores, email string, role models.Role, coins int64) *models.User {
	t.Helper()
	_, user, err := stores.Users.Ensure(context.Background(), &models.User{
		Email:       email,
		Name:        email,
		Role:        role,
		CoinBalance: coins,
	})
	require.NoError(t, err)
	return user
}

func seedTask(t *testing.T, stores Stores, buyerEmail string, pay, slots int64) *models.Task {
	t.Helper()
	task := &models.Task{
		BuyerEmail:       buyerEmail,
		BuyerName:        "buyer",
		Title:            "Follow our page",
		Detail:           "Like and follow",
		PayPerSubmission: pay,
		RequiredWorkers:  slots,
		CompletionDate:   time.Now().Add(48 * time.Hour),
	}
	require.NoError(t, stores.Tasks.Create(context.Background(), task))
	return task
}

func balanceOf(t *testing.T, stores Stores, email string) int64 {
	t.Helper()
	user, err := stores.Users.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return user.CoinBalance
}

type notification struct {
	email string
	kind  string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *recordingNotifier) NotifyUser(email, kind, _ string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{email: email, kind: kind})
}

func (n *recordingNotifier) kinds(email string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, e := range n.events {
		if e.email == email {
			out = append(out, e.kind)
		}
	}
	return out
}

// flakyUsers fails AdjustCoins calls while failAdjust is set.
type flakyUsers struct {
	repositories.UserStore
	mu         sync.Mutex
	failAdjust error
}

func (f *flakyUsers) AdjustCoins(ctx context.Context, email string, delta int64) (*models.User, error) {
	f.mu.Lock()
	err := f.failAdjust
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.UserStore.AdjustCoins(ctx, email, delta)
}

// flakyTasks fails ReleaseSlot while failRelease is set.
type flakyTasks struct {
	repositories.TaskStore
	failRelease error
}

func (f *flakyTasks) ReleaseSlot(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	if f.failRelease != nil {
		return nil, f.failRelease
	}
	return f.TaskStore.ReleaseSlot(ctx, id)
}

// flakySubmissions fails Create while failCreate is set.
type flakySubmissions struct {
	repositories.SubmissionStore
	failCreate error
}

func (f *flakySubmissions) Create(ctx context.Context, sub *models.Submission) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	return f.SubmissionStore.Create(ctx, sub)
}

// flakyPayments fails AppendPayout while failPayout is set and
// MarkPurchaseCredited while failMark is set.
type flakyPayments struct {
	repositories.PaymentStore
	failPayout error
	failMark   error
}

func (f *flakyPayments) MarkPurchaseCredited(ctx context.Context, id primitive.ObjectID) error {
	if f.failMark != nil {
		return f.failMark
	}
	return f.PaymentStore.MarkPurchaseCredited(ctx, id)
}

func (f *flakyPayments) AppendPayout(ctx context.Context, p *models.Payment) error {
	if f.failPayout != nil {
		return f.failPayout
	}
	return f.PaymentStore.AppendPayout(ctx, p)
}

// stallingUsers holds AdjustCoins until the caller's context ends while stall is
// set, the way a driver call behaves when the request deadline passes mid-flight.
type stallingUsers struct {
	repositories.UserStore
	stall atomic.Bool
}

func (s *stallingUsers) AdjustCoins(ctx context.Context, email string, delta int64) (*models.User, error) {
	if s.stall.Load() {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.UserStore.AdjustCoins(ctx, email, delta)
}

// The ctx* stores refuse writes on a finished context like a real driver does.

type ctxSubmissions struct {
	repositories.SubmissionStore
}

func (s ctxSubmissions) Transition(ctx context.Context, id primitive.ObjectID, from, to models.SubmissionStatus) (*models.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.SubmissionStore.Transition(ctx, id, from, to)
}

type ctxWithdrawals struct {
	repositories.WithdrawalStore
}

func (s ctxWithdrawals) Transition(ctx context.Context, id primitive.ObjectID, from, to models.WithdrawalStatus) (*models.Withdrawal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.WithdrawalStore.Transition(ctx, id, from, to)
}

type ctxPayments struct {
	repositories.PaymentStore
}

func (s ctxPayments) DeletePurchase(ctx context.Context, id primitive.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.PaymentStore.DeletePurchase(ctx, id)
}

// withDeadline returns a request context that expires shortly, well after the
// in-memory steps before the stalled call have run.
func withDeadline(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	t.Cleanup(cancel)
	return ctx
}
