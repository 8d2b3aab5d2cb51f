package services

import (
	"context"
	"strings"

	"github.com/HSouheill/microtask_backend/models"
	"github.com/HSouheill/microtask_backend/repositories"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskService is the task registry. It persists tasks but does not charge for them;
// buyers pre-pay through PurchaseService.DeductForTaskCreation.
type TaskService struct {
	tasks repositories.TaskStore
	log   *logrus.Entry
}

func NewTaskService(tasks repositories.TaskStore, logger *logrus.Logger) *TaskService {
	return &TaskService{tasks: tasks, log: newLogger(logger, "tasks")}
}

func (s *TaskService) CreateTask(ctx context.Context, buyer *models.User, req models.CreateTaskRequest) (*models.Task, error) {
	if req.PayPerSubmission <= 0 || req.RequiredWorkers < 0 || strings.TrimSpace(req.Title) == "" {
		return nil, models.ErrInvalidInput
	}
	task := &models.Task{
		BuyerEmail:       buyer.Email,
		BuyerName:        buyer.Name,
		Title:            strings.TrimSpace(req.Title),
		Detail:           req.Detail,
		SubmissionInfo:   req.SubmissionInfo,
		ImageURL:         req.ImageURL,
		PayPerSubmission: req.PayPerSubmission,
		RequiredWorkers:  req.RequiredWorkers,
		CompletionDate:   req.CompletionDate,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, upstream(err)
	}
	s.log.WithFields(logrus.Fields{"taskId": task.ID.Hex(), "buyer": buyer.Email, "slots": task.RequiredWorkers}).Info("task created")
	return task, nil
}

func (s *TaskService) ListOpen(ctx context.Context) ([]models.Task, error) {
	return s.tasks.ListOpen(ctx)
}

func (s *TaskService) ListByBuyer(ctx context.Context, email string) ([]models.Task, error) {
	return s.tasks.ListByBuyer(ctx, normalizeEmail(email))
}

func (s *TaskService) Get(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	return s.tasks.GetByID(ctx, id)
}

func (s *TaskService) UpdateTask(ctx context.Context, caller *models.User, id primitive.ObjectID, update models.TaskUpdate) (*models.Task, error) {
	if update.Empty() {
		return nil, models.ErrInvalidInput
	}
	if _, err := s.owned(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.tasks.Update(ctx, id, update)
}

// DeleteTask removes the task only. Submissions keep their own snapshot of it.
func (s *TaskService) DeleteTask(ctx context.Context, caller *models.User, id primitive.ObjectID) error {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"taskId": id.Hex(), "by": caller.Email}).Info("task deleted")
	return nil
}

// owned loads a task the caller may manage. Tasks owned by someone else read as
// not found.
func (s *TaskService) owned(ctx context.Context, caller *models.User, id primitive.ObjectID) (*models.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role != models.RoleAdmin && task.BuyerEmail != caller.Email {
		return nil, models.ErrTaskNotFound
	}
	return task, nil
}
