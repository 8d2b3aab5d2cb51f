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

type SubmissionRepository struct {
	collection *mongo.Collection
}

func NewSubmissionRepository(db *mongo.Database) *SubmissionRepository {
	return &SubmissionRepository{collection: db.Collection(SubmissionsCollection)}
}

func (r *SubmissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}
	sub.UpdatedAt = time.Now()
	if _, err := r.collection.InsertOne(ctx, sub); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Submission, error) {
	var sub models.Submission
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&sub); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return &sub, nil
}

func (r *SubmissionRepository) Transition(ctx context.Context, id primitive.ObjectID, from, to models.SubmissionStatus) (*models.Submission, error) {
	var sub models.Submission
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&sub)
	if err == nil {
		return &sub, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("transition submission: %w", err)
	}
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, models.ErrStatusConflict
}

func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error) {
	return findAll[models.Submission](ctx, r.collection, submissionQuery(filter),
		options.Find().SetSort(bson.D{{Key: "currentDate", Value: -1}}))
}

func (r *SubmissionRepository) Count(ctx context.Context, filter models.SubmissionFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, submissionQuery(filter))
}

func submissionQuery(filter models.SubmissionFilter) bson.M {
	query := bson.M{}
	if filter.WorkerEmail != "" {
		query["workerEmail"] = filter.WorkerEmail
	}
	if filter.BuyerEmail != "" {
		query["buyerEmail"] = filter.BuyerEmail
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return query
}
