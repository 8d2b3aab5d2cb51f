// Package repositories holds the Document Store contract used by the services and its
// MongoDB implementation. Every mutating method is a single-document atomic operation.
package repositories

import (
	"context"

	"github.com/HSouheill/microtask_backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserStore persists accounts and is the only writer of coinBalance.
type UserStore interface {
	// Ensure inserts user unless one with the same email exists, in which case the
	// stored user is returned unchanged and created is false.
	Ensure(ctx context.Context, user *models.User) (created bool, stored *models.User, err error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	// ListByRole returns users of role ordered by coinBalance descending.
	ListByRole(ctx context.Context, role models.Role, limit int64) ([]models.User, error)
	// AdjustCoins applies delta atomically. A debit that would take the balance below
	// zero fails with models.ErrInsufficientBalance and changes nothing.
	AdjustCoins(ctx context.Context, email string, delta int64) (*models.User, error)
	// SetCoins moves the balance to value by applying the computed delta against the
	// balance it was computed from, retrying when a concurrent change wins.
	SetCoins(ctx context.Context, email string, value int64) (*models.User, error)
	SetRole(ctx context.Context, id primitive.ObjectID, role models.Role) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByRole(ctx context.Context, role models.Role) (int64, error)
	SumCoins(ctx context.Context) (int64, error)
}

// TaskStore persists tasks and their worker slots.
type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	// ListOpen returns tasks with requiredWorkers > 0, newest completionDate first.
	ListOpen(ctx context.Context) ([]models.Task, error)
	ListByBuyer(ctx context.Context, email string) ([]models.Task, error)
	Update(ctx context.Context, id primitive.ObjectID, update models.TaskUpdate) (*models.Task, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// ConsumeSlot decrements requiredWorkers only while it is positive, otherwise it
	// fails with models.ErrSlotUnavailable.
	ConsumeSlot(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	ReleaseSlot(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	CountByBuyer(ctx context.Context, email string) (int64, error)
	SumRequiredWorkers(ctx context.Context, email string) (int64, error)
}

// SubmissionStore persists submissions.
type SubmissionStore interface {
	Create(ctx context.Context, sub *models.Submission) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Submission, error)
	// Transition moves a submission from one status to another only if it is
	// currently in from. A submission in any other status yields
	// models.ErrStatusConflict.
	Transition(ctx context.Context, id primitive.ObjectID, from, to models.SubmissionStatus) (*models.Submission, error)
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error)
	Count(ctx context.Context, filter models.SubmissionFilter) (int64, error)
}

// WithdrawalStore persists withdrawal requests.
type WithdrawalStore interface {
	Create(ctx context.Context, w *models.Withdrawal) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Withdrawal, error)
	Transition(ctx context.Context, id primitive.ObjectID, from, to models.WithdrawalStatus) (*models.Withdrawal, error)
	ListByStatus(ctx context.Context, status models.WithdrawalStatus) ([]models.Withdrawal, error)
	ListByWorker(ctx context.Context, email string) ([]models.Withdrawal, error)
}

// PaymentStore holds the two append-only ledgers: payouts and coin purchases.
type PaymentStore interface {
	// AppendPayout fails with models.ErrDuplicatePayout when a payout for the same
	// withdrawal already exists.
	AppendPayout(ctx context.Context, p *models.Payment) error
	// SumPayouts totals withdrawalAmount, for one email or for everyone when email is empty.
	SumPayouts(ctx context.Context, email string) (int64, error)
	// AppendPurchase fails with models.ErrDuplicatePurchase when transactionId was
	// already recorded.
	AppendPurchase(ctx context.Context, p *models.PaymentData) error
	// MarkPurchaseCredited clears the pending marker once the coins are on the balance.
	MarkPurchaseCredited(ctx context.Context, id primitive.ObjectID) error
	DeletePurchase(ctx context.Context, id primitive.ObjectID) error
	// FindPurchaseByTransaction returns the record whether or not it is pending.
	FindPurchaseByTransaction(ctx context.Context, transactionID string) (*models.PaymentData, error)
	// ListPurchases and SumPurchasePrice only see credited records.
	ListPurchases(ctx context.Context, email string) ([]models.PaymentData, error)
	SumPurchasePrice(ctx context.Context, email string) (float64, error)
}

// LeaderboardCache caches the top-workers projection.
type LeaderboardCache interface {
	Get(ctx context.Context) ([]models.User, bool)
	Set(ctx context.Context, users []models.User) error
	Invalidate(ctx context.Context) error
}
