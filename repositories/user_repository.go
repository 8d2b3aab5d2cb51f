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

// maxSetCoinsAttempts bounds the compare-and-swap loop in SetCoins.
const maxSetCoinsAttempts = 5

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection(UsersCollection),
	}
}

func (r *UserRepository) Ensure(ctx context.Context, user *models.User) (bool, *models.User, error) {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"email": user.Email},
		bson.M{"$setOnInsert": bson.M{
			"email":       user.Email,
			"name":        user.Name,
			"photoUrl":    user.PhotoURL,
			"role":        user.Role,
			"coinBalance": user.CoinBalance,
			"createdAt":   user.CreatedAt,
			"updatedAt":   user.UpdatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	// Two concurrent upserts on the unique email index: the loser just reads.
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return false, nil, fmt.Errorf("ensure user: %w", err)
	}
	stored, getErr := r.GetByEmail(ctx, user.Email)
	if getErr != nil {
		return false, nil, getErr
	}
	return err == nil && res.UpsertedCount == 1, stored, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	return findAll[models.User](ctx, r.collection, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *UserRepository) ListByRole(ctx context.Context, role models.Role, limit int64) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "coinBalance", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return findAll[models.User](ctx, r.collection, bson.M{"role": role}, opts)
}

func (r *UserRepository) AdjustCoins(ctx context.Context, email string, delta int64) (*models.User, error) {
	filter := bson.M{"email": email}
	if delta < 0 {
		filter["coinBalance"] = bson.M{"$gte": -delta}
	}
	update := bson.M{
		"$inc": bson.M{"coinBalance": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	}

	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&user)
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("adjust coins: %w", err)
	}
	// The guard filtered it out: either no such user or not enough coins.
	if _, getErr := r.GetByEmail(ctx, email); getErr != nil {
		return nil, getErr
	}
	return nil, models.ErrInsufficientBalance
}

func (r *UserRepository) SetCoins(ctx context.Context, email string, value int64) (*models.User, error) {
	if value < 0 {
		return nil, models.ErrInvalidInput
	}
	for attempt := 0; attempt < maxSetCoinsAttempts; attempt++ {
		current, err := r.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		var user models.User
		err = r.collection.FindOneAndUpdate(ctx,
			bson.M{"email": email, "coinBalance": current.CoinBalance},
			bson.M{
				"$inc": bson.M{"coinBalance": value - current.CoinBalance},
				"$set": bson.M{"updatedAt": time.Now()},
			},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&user)
		if err == nil {
			return &user, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("set coins: %w", err)
		}
	}
	return nil, fmt.Errorf("set coins for %s: %w", email, models.ErrStatusConflict)
}

func (r *UserRepository) SetRole(ctx context.Context, id primitive.ObjectID, role models.Role) (*models.User, error) {
	var user models.User
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"role": role, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("set role: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"role": role})
}

func (r *UserRepository) SumCoins(ctx context.Context) (int64, error) {
	return sumInt64(ctx, r.collection, bson.M{}, "coinBalance")
}
