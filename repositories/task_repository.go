package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HSouheill/microtask_backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TaskRepository struct {
	collection *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{collection: db.Collection(TasksCollection)}
}

var newestFirst = bson.D{{Key: "completionDate", Value: -1}}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	if _, err := r.collection.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return &task, nil
}

func (r *TaskRepository) ListOpen(ctx context.Context) ([]models.Task, error) {
	return findAll[models.Task](ctx, r.collection,
		bson.M{"requiredWorkers": bson.M{"$gt": 0}},
		options.Find().SetSort(newestFirst))
}

func (r *TaskRepository) ListByBuyer(ctx context.Context, email string) ([]models.Task, error) {
	return findAll[models.Task](ctx, r.collection,
		bson.M{"buyerEmail": email},
		options.Find().SetSort(newestFirst))
}

func (r *TaskRepository) Update(ctx context.Context, id primitive.ObjectID, update models.TaskUpdate) (*models.Task, error) {
	set := bson.M{"updatedAt": time.Now()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Detail != nil {
		set["detail"] = *update.Detail
	}
	if update.SubmissionInfo != nil {
		set["submissionInfo"] = *update.SubmissionInfo
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

func (r *TaskRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) ConsumeSlot(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	task, err := r.findOneAndUpdate(ctx,
		bson.M{"_id": id, "requiredWorkers": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"requiredWorkers": -1}, "$set": bson.M{"updatedAt": time.Now()}})
	if errors.Is(err, models.ErrTaskNotFound) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, models.ErrSlotUnavailable
	}
	return task, err
}

func (r *TaskRepository) ReleaseSlot(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	return r.findOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"requiredWorkers": 1}, "$set": bson.M{"updatedAt": time.Now()}})
}

func (r *TaskRepository) CountByBuyer(ctx context.Context, email string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"buyerEmail": email})
}

func (r *TaskRepository) SumRequiredWorkers(ctx context.Context, email string) (int64, error) {
	return sumInt64(ctx, r.collection, bson.M{"buyerEmail": email}, "requiredWorkers")
}

func (r *TaskRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Task, error) {
	var task models.Task
	err := r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrTaskNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	return &task, nil
}
