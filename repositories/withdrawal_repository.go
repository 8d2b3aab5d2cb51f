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

type WithdrawalRepository struct {
	collection *mongo.Collection
}

func NewWithdrawalRepository(db *mongo.Database) *WithdrawalRepository {
	return &WithdrawalRepository{collection: db.Collection(WithdrawalsCollection)}
}

func (r *WithdrawalRepository) Create(ctx context.Context, w *models.Withdrawal) error {
	if w.ID.IsZero() {
		w.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, w); err != nil {
		return fmt.Errorf("insert withdrawal: %w", err)
	}
	return nil
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Withdrawal, error) {
	var w models.Withdrawal
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&w); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrWithdrawalNotFound
		}
		return nil, fmt.Errorf("find withdrawal: %w", err)
	}
	return &w, nil
}

func (r *WithdrawalRepository) Transition(ctx context.Context, id primitive.ObjectID, from, to models.WithdrawalStatus) (*models.Withdrawal, error) {
	set := bson.M{"status": to}
	unset := bson.M{}
	if to == models.WithdrawalPending {
		unset["processedAt"] = ""
	} else {
		set["processedAt"] = time.Now()
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var w models.Withdrawal
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": from},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&w)
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("transition withdrawal: %w", err)
	}
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, models.ErrStatusConflict
}

func (r *WithdrawalRepository) ListByStatus(ctx context.Context, status models.WithdrawalStatus) ([]models.Withdrawal, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return findAll[models.Withdrawal](ctx, r.collection, filter,
		options.Find().SetSort(bson.D{{Key: "withdrawDate", Value: -1}}))
}

func (r *WithdrawalRepository) ListByWorker(ctx context.Context, email string) ([]models.Withdrawal, error) {
	return findAll[models.Withdrawal](ctx, r.collection, bson.M{"workerEmail": email},
		options.Find().SetSort(bson.D{{Key: "withdrawDate", Value: -1}}))
}
