package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/HSouheill/microtask_backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func withdrawalRequest(coins int64) models.WithdrawalRequest {
	return models.WithdrawalRequest{WorkerName: "Wendy", WithdrawalCoins: coins, PaymentSystem: "bkash", AccountNumber: "0123"}
}

func TestWithdrawalRequest_Minimum(t *testing.T) {
	_, stores := newTestStores()
	svc := NewWithdrawalService(stores, nil, quietLogger())
	ctx := context.Background()

	_, err := svc.Request(ctx, "worker@example.com", withdrawalRequest(150))
	assert.ErrorIs(t, err, models.ErrBelowMinimum)

	_, err = svc.Request(ctx, "", withdrawalRequest(500))
	assert.ErrorIs(t, err, models.ErrBelowMinimum)

	missing := withdrawalRequest(500)
	missing.PaymentSystem = " "
	_, err = svc.Request(ctx, "worker@example.com", missing)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	// The balance is not consulted when the request is filed.
	w, err := svc.Request(ctx, "worker@example.com", withdrawalRequest(200))
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalPending, w.Status)
	assert.Equal(t, int64(200), w.WithdrawalCoins)
	assert.False(t, w.ID.IsZero())

	mine, err := svc.ListMine(ctx, "worker@example.com")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestWithdrawalApprove_InsufficientBalanceStaysPending(t *testing.T) {
	store, stores := newTestStores()
	svc := NewWithdrawalService(stores, nil, quietLogger())
	ctx := context.Background()

	seedUser(t, stores, "worker@example.com", models.RoleWorker, 150)
	w, err := svc.Request(ctx, "worker@example.com", withdrawalRequest(200))
	require.NoError(t, err)

	_, _, err = svc.Approve(ctx, w.ID)
	require.ErrorIs(t, err, models.ErrInsufficientBalance)

	stored, err := stores.Withdrawals.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalPending, stored.Status)
	assert.Nil(t, stored.ProcessedAt)
	assert.Equal(t, int64(150), balanceOf(t, stores, "worker@example.com"))
	assert.Empty(t, store.Payouts("worker@example.com"))
}

func TestWithdrawalApprove_DebitsOnceAndRecordsPayout(t *testing.T) {
	store, stores := newTestStores()
	notifier := &recordingNotifier{}
	svc := NewWithdrawalService(stores, notifier, quietLogger())
	ctx := context.Background()

	seedUser(t, stores, "worker@example.com", models.RoleWorker, 500)
	w, err := svc.Request(ctx, "worker@example.com", withdrawalRequest(300))
	require.NoError(t, err)

	approved, payment, err := svc.Approve(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalApproved, approved.Status)
	assert.NotNil(t, approved.ProcessedAt)
	assert.Equal(t, w.ID, payment.WithdrawalID)
	assert.Equal(t, int64(300), payment.WithdrawalAmount)
	assert.Equal(t, models.RoleWorker, payment.Role)
	assert.Equal(t, int64(200), balanceOf(t, stores, "worker@example.com"))

	_, _, err = svc.Approve(ctx, w.ID)
	assert.ErrorIs(t, err, models.ErrAlreadyApproved)
	assert.Equal(t, int64(200), balanceOf(t, stores, "worker@example.com"))
	assert.Len(t, store.Payouts("worker@example.com"), 1)
	assert.Equal(t, []string{EventWithdrawalApproved}, notifier.kinds("worker@example.com"))

	_, _, err = svc.Approve(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, models.ErrWithdrawalNotFound)
}

func TestWithdrawalApprove_Concurrent(t *testing.T) {
	store, stores := newTestStores()
	svc := NewWithdrawalService(stores, nil, quietLogger())
	ctx := context.Background()

	seedUser(t, stores, "worker@example.com", models.RoleWorker, 1000)
	w, err := svc.Request(ctx, "worker@example.com", withdrawalRequest(400))
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.Approve(ctx, w.ID)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, models.ErrAlreadyApproved)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, int64(600), balanceOf(t, stores, "worker@example.com"))
	assert.Len(t, store.Payouts("worker@example.com"), 1)
}

func TestWithdrawalApprove_PayoutFailureRestoresCoins(t *testing.T) {
	store, stores := newTestStores()
	payments := &flakyPayments{PaymentStore: stores.Payments, failPayout: errors.New("primary stepped down")}
	stores.Payments = payments
	svc := NewWithdrawalService(stores, nil, quietLogger())
	ctx := context.Background()

	seedUser(t, stores, "worker@example.com", models.RoleWorker, 250)
	w, err := svc.Request(ctx, "worker@example.com", withdrawalRequest(200))
	require.NoError(t, err)

	_, _, err = svc.Approve(ctx, w.ID)
	require.ErrorIs(t, err, models.ErrUpstream)
	assert.Equal(t, int64(250), balanceOf(t, stores, "worker@example.com"))
	stored, err := stores.Withdrawals.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalPending, stored.Status)

	payments.failPayout = nil
	_, _, err = svc.Approve(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balanceOf(t, stores, "worker@example.com"))
	assert.Len(t, store.Payouts("worker@example.com"), 1)
}

func TestWithdrawalListByStatus(t *testing.T) {
	_, stores := newTestStores()
	svc := NewWithdrawalService(stores, nil, quietLogger())
	ctx := context.Background()

	seedUser(t, stores, "worker@example.com", models.RoleWorker, 1000)
	first, err := svc.Request(ctx, "worker@example.com", withdrawalRequest(200))
	require.NoError(t, err)
	_, err = svc.Request(ctx, "worker@example.com", withdrawalRequest(300))
	require.NoError(t, err)
	_, _, err = svc.Approve(ctx, first.ID)
	require.NoError(t, err)

	pending, err := svc.ListByStatus(ctx, models.WithdrawalPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(300), pending[0].WithdrawalCoins)

	all, err := svc.ListByStatus(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.ListByStatus(ctx, "cancelled")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestWithdrawalApprove_RevertsWhenRequestDeadlinePasses(t *testing.T) {
	store, stores := newTestStores()
	users := &stallingUsers{UserStore: stores.Users}
	stores.Users = users
	stores.Withdrawals = ctxWithdrawals{WithdrawalStore: stores.Withdrawals}
	svc := NewWithdrawalService(stores, nil, quietLogger())
	ctx := context.Background()

	seedUser(t, stores, "worker@example.com", models.RoleWorker, 300)
	w, err := svc.Request(ctx, "worker@example.com", withdrawalRequest(200))
	require.NoError(t, err)

	users.stall.Store(true)
	_, _, err = svc.Approve(withDeadline(t), w.ID)
	require.ErrorIs(t, err, models.ErrUpstream)

	stored, err := stores.Withdrawals.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalPending, stored.Status)
	assert.Empty(t, store.Payouts("worker@example.com"))
	assert.Equal(t, int64(300), balanceOf(t, stores, "worker@example.com"))

	users.stall.Store(false)
	approved, payment, err := svc.Approve(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalApproved, approved.Status)
	assert.Equal(t, int64(200), payment.WithdrawalAmount)
	assert.Equal(t, int64(100), balanceOf(t, stores, "worker@example.com"))
	assert.Len(t, store.Payouts("worker@example.com"), 1)
}
