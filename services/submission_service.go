package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/HSouheill/microtask_backend/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	EventSubmissionCreated  = "submission_created"
	EventSubmissionReviewed = "submission_reviewed"
)

// SubmissionService runs the pending -> approved | rejected state machine. Each
// transition is claimed with a conditional status update before any coin or slot
// effect, so only one caller ever applies the side effect; a failed side effect
// reverts the claim.
type SubmissionService struct {
	stores   Stores
	ledger   coinLedger
	notifier Notifier
	log      *logrus.Entry
}

// NewSubmissionService builds the service. notifier may be nil.
func NewSubmissionService(stores Stores, notifier Notifier, logger *logrus.Logger) *SubmissionService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	log := newLogger(logger, "submissions")
	return &SubmissionService{
		stores:   stores,
		ledger:   newCoinLedger(stores, log),
		notifier: notifier,
		log:      log,
	}
}

// Submit reserves one slot on the task and records a pending submission carrying a
// snapshot of the task's pay and owner.
func (s *SubmissionService) Submit(ctx context.Context, workerEmail string, taskID primitive.ObjectID, details string) (*models.Submission, error) {
	if strings.TrimSpace(details) == "" {
		return nil, models.ErrInvalidInput
	}
	worker, err := s.stores.Users.GetByEmail(ctx, workerEmail)
	if err != nil {
		return nil, err
	}
	task, err := s.stores.Tasks.ConsumeSlot(ctx, taskID)
	if err != nil {
		return nil, err
	}

	sub := &models.Submission{
		TaskID:            task.ID,
		TaskTitle:         task.Title,
		TaskAmount:        task.PayPerSubmission,
		WorkerEmail:       worker.Email,
		WorkerName:        worker.Name,
		BuyerEmail:        task.BuyerEmail,
		BuyerName:         task.BuyerName,
		SubmissionDetails: details,
		Status:            models.SubmissionPending,
		CurrentDate:       time.Now(),
	}
	if err := s.stores.Submissions.Create(ctx, sub); err != nil {
		compensate(ctx, s.log, "submit", func(ctx context.Context) error {
			_, relErr := s.stores.Tasks.ReleaseSlot(ctx, taskID)
			return relErr
		})
		return nil, upstream(err)
	}

	transitions.WithLabelValues("submission", string(models.SubmissionPending)).Inc()
	s.log.WithFields(logrus.Fields{
		"submissionId": sub.ID.Hex(),
		"taskId":       task.ID.Hex(),
		"worker":       worker.Email,
		"slotsLeft":    task.RequiredWorkers,
	}).Info("submission created")
	s.notifier.NotifyUser(sub.BuyerEmail, EventSubmissionCreated, "New submission for "+sub.TaskTitle, sub)
	return sub, nil
}

// Approve credits the worker once. Approving a submission that is no longer pending
// changes nothing and reports changed=false.
func (s *SubmissionService) Approve(ctx context.Context, buyerEmail string, id primitive.ObjectID) (*models.Submission, bool, error) {
	sub, err := s.ownedPending(ctx, buyerEmail, id)
	if err != nil || sub.Status.Terminal() {
		return sub, false, err
	}

	approved, err := s.stores.Submissions.Transition(ctx, id, models.SubmissionPending, models.SubmissionApproved)
	if errors.Is(err, models.ErrStatusConflict) {
		current, getErr := s.stores.Submissions.GetByID(ctx, id)
		return current, false, getErr
	}
	if err != nil {
		return nil, false, err
	}

	if _, err := s.ledger.move(ctx, approved.WorkerEmail, approved.TaskAmount, "submission_approved"); err != nil {
		compensate(ctx, s.log, "approve_submission", func(ctx context.Context) error {
			_, revErr := s.stores.Submissions.Transition(ctx, id, models.SubmissionApproved, models.SubmissionPending)
			return revErr
		})
		return nil, false, upstream(err)
	}

	transitions.WithLabelValues("submission", string(models.SubmissionApproved)).Inc()
	s.log.WithFields(logrus.Fields{"submissionId": id.Hex(), "worker": approved.WorkerEmail, "coins": approved.TaskAmount}).
		Info("submission approved")
	s.notifier.NotifyUser(approved.WorkerEmail, EventSubmissionReviewed, "Your submission was approved", approved)
	return approved, true, nil
}

// Reject returns the reserved slot to the task once. Rejecting a submission that is
// no longer pending changes nothing and reports changed=false.
func (s *SubmissionService) Reject(ctx context.Context, buyerEmail string, id primitive.ObjectID) (*models.Submission, bool, error) {
	sub, err := s.ownedPending(ctx, buyerEmail, id)
	if err != nil || sub.Status.Terminal() {
		return sub, false, err
	}

	rejected, err := s.stores.Submissions.Transition(ctx, id, models.SubmissionPending, models.SubmissionRejected)
	if errors.Is(err, models.ErrStatusConflict) {
		current, getErr := s.stores.Submissions.GetByID(ctx, id)
		return current, false, getErr
	}
	if err != nil {
		return nil, false, err
	}

	_, err = s.stores.Tasks.ReleaseSlot(ctx, rejected.TaskID)
	switch {
	case errors.Is(err, models.ErrTaskNotFound):
		// Task was deleted; there is no pool to return the slot to.
		s.log.WithField("taskId", rejected.TaskID.Hex()).Warn("rejected submission of a deleted task")
	case err != nil:
		compensate(ctx, s.log, "reject_submission", func(ctx context.Context) error {
			_, revErr := s.stores.Submissions.Transition(ctx, id, models.SubmissionRejected, models.SubmissionPending)
			return revErr
		})
		return nil, false, upstream(err)
	}

	transitions.WithLabelValues("submission", string(models.SubmissionRejected)).Inc()
	s.log.WithFields(logrus.Fields{"submissionId": id.Hex(), "taskId": rejected.TaskID.Hex()}).Info("submission rejected")
	s.notifier.NotifyUser(rejected.WorkerEmail, EventSubmissionReviewed, "Your submission was rejected", rejected)
	return rejected, true, nil
}

// ownedPending loads a submission owned by buyerEmail. Someone else's submission reads
// as not found.
func (s *SubmissionService) ownedPending(ctx context.Context, buyerEmail string, id primitive.ObjectID) (*models.Submission, error) {
	sub, err := s.stores.Submissions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.BuyerEmail != buyerEmail {
		return nil, models.ErrSubmissionNotFound
	}
	return sub, nil
}

func (s *SubmissionService) ListMine(ctx context.Context, workerEmail string) ([]models.Submission, error) {
	return s.stores.Submissions.List(ctx, models.SubmissionFilter{WorkerEmail: workerEmail})
}

func (s *SubmissionService) ListPendingForBuyer(ctx context.Context, buyerEmail string) ([]models.Submission, error) {
	return s.stores.Submissions.List(ctx, models.SubmissionFilter{BuyerEmail: buyerEmail, Status: models.SubmissionPending})
}

func (s *SubmissionService) ListApprovedForWorker(ctx context.Context, workerEmail string) ([]models.Submission, error) {
	return s.stores.Submissions.List(ctx, models.SubmissionFilter{WorkerEmail: workerEmail, Status: models.SubmissionApproved})
}
