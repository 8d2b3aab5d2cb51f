package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/HSouheill/microtask_backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PaymentRepository stores payouts in "payments" and coin purchases in "paymentData".
type PaymentRepository struct {
	payouts   *mongo.Collection
	purchases *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{
		payouts:   db.Collection(PaymentsCollection),
		purchases: db.Collection(PaymentDataCollection),
	}
}

func (r *PaymentRepository) AppendPayout(ctx context.Context, p *models.Payment) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, err := r.payouts.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicatePayout
		}
		return fmt.Errorf("insert payout: %w", err)
	}
	return nil
}

func (r *PaymentRepository) SumPayouts(ctx context.Context, email string) (int64, error) {
	match := bson.M{}
	if email != "" {
		match["email"] = email
	}
	return sumInt64(ctx, r.payouts, match, "withdrawalAmount")
}

func (r *PaymentRepository) AppendPurchase(ctx context.Context, p *models.PaymentData) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, err := r.purchases.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicatePurchase
		}
		return fmt.Errorf("insert purchase: %w", err)
	}
	return nil
}

func (r *PaymentRepository) MarkPurchaseCredited(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.purchases.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$unset": bson.M{"pending": ""}})
	if err != nil {
		return fmt.Errorf("mark purchase credited: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrPurchaseNotFound
	}
	return nil
}

func (r *PaymentRepository) DeletePurchase(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.purchases.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete purchase: %w", err)
	}
	return nil
}

func (r *PaymentRepository) FindPurchaseByTransaction(ctx context.Context, transactionID string) (*models.PaymentData, error) {
	var p models.PaymentData
	if err := r.purchases.FindOne(ctx, bson.M{"transactionId": transactionID}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("find purchase: %w", err)
	}
	return &p, nil
}

func (r *PaymentRepository) ListPurchases(ctx context.Context, email string) ([]models.PaymentData, error) {
	return findAll[models.PaymentData](ctx, r.purchases, creditedPurchases(email),
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}))
}

func (r *PaymentRepository) SumPurchasePrice(ctx context.Context, email string) (float64, error) {
	return sumFloat64(ctx, r.purchases, creditedPurchases(email), "price")
}

// creditedPurchases matches the buyer's records that are not pending. Records
// written before the marker existed carry no field and count as credited.
func creditedPurchases(email string) bson.M {
	return bson.M{"email": email, "pending": bson.M{"$ne": true}}
}
