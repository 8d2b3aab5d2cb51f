package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection       = "users"
	TasksCollection       = "tasks"
	SubmissionsCollection = "submissions"
	WithdrawalsCollection = "withdrawals"
	PaymentsCollection    = "payments"
	PaymentDataCollection = "paymentData"
)

// findAll runs a find and decodes every document into T.
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	items := make([]T, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return items, nil
}

// sumInt64 returns the $sum of field over the documents matching match, 0 when none match.
func sumInt64(ctx context.Context, coll *mongo.Collection, match bson.M, field string) (int64, error) {
	var result struct {
		Total int64 `bson:"total"`
	}
	found, err := aggregateTotal(ctx, coll, match, field, &result)
	if err != nil || !found {
		return 0, err
	}
	return result.Total, nil
}

func sumFloat64(ctx context.Context, coll *mongo.Collection, match bson.M, field string) (float64, error) {
	var result struct {
		Total float64 `bson:"total"`
	}
	found, err := aggregateTotal(ctx, coll, match, field, &result)
	if err != nil || !found {
		return 0, err
	}
	return result.Total, nil
}

func aggregateTotal(ctx context.Context, coll *mongo.Collection, match bson.M, field string, out interface{}) (bool, error) {
	pipeline := []bson.M{
		{"$match": match},
		{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$" + field}}},
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return false, fmt.Errorf("aggregate %s.%s: %w", coll.Name(), field, err)
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		return false, cursor.Err()
	}
	if err := cursor.Decode(out); err != nil {
		return false, fmt.Errorf("decode %s.%s total: %w", coll.Name(), field, err)
	}
	return true, nil
}

// EnsureIndexes creates the indexes the atomic operations and projections rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "coinBalance", Value: -1}}},
		},
		TasksCollection: {
			{Keys: bson.D{{Key: "buyerEmail", Value: 1}, {Key: "completionDate", Value: -1}}},
			{Keys: bson.D{{Key: "requiredWorkers", Value: 1}, {Key: "completionDate", Value: -1}}},
		},
		SubmissionsCollection: {
			{Keys: bson.D{{Key: "workerEmail", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "buyerEmail", Value: 1}, {Key: "status", Value: 1}}},
		},
		WithdrawalsCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "workerEmail", Value: 1}}},
		},
		PaymentsCollection: {
			{Keys: bson.D{{Key: "withdrawalId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}},
		},
		PaymentDataCollection: {
			{Keys: bson.D{{Key: "transactionId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}},
		},
	}
	for name, specs := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
