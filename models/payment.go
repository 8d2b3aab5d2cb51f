package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment is an append-only payout record written when a withdrawal is approved
type Payment struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WithdrawalID     primitive.ObjectID `bson:"withdrawalId" json:"withdrawalId"`
	Name             string             `bson:"name" json:"name"`
	Email            string             `bson:"email" json:"email"`
	Role             Role               `bson:"role" json:"role"`
	WithdrawalAmount int64              `bson:"withdrawalAmount" json:"withdrawalAmount"`
	PaymentSystem    string             `bson:"paymentSystem" json:"paymentSystem"`
	WithdrawDate     time.Time          `bson:"withdrawDate" json:"withdrawDate"`
	ApprovedDate     time.Time          `bson:"approvedDate" json:"approvedDate"`
}

// PaymentData is an append-only record of a coin purchase. Pending is set from
// insert until the coins are credited; a pending record is not yet part of the
// buyer's history or totals.
type PaymentData struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email          string             `bson:"email" json:"email"`
	Price          float64            `bson:"price" json:"price"`
	CoinsPurchased int64              `bson:"coinsPurchased" json:"coinsPurchased"`
	TransactionID  string             `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	Timestamp      time.Time          `bson:"timestamp" json:"timestamp"`
	Pending        bool               `bson:"pending,omitempty" json:"-"`
}

// PaymentIntentRequest is the body of POST /create-payment-intent. Amount is in cents.
type PaymentIntentRequest struct {
	Amount int64 `json:"amount" validate:"gt=0"`
}

// PurchaseRequest is the body of POST /payments
type PurchaseRequest struct {
	Email          string `json:"email" validate:"required,email"`
	CoinsPurchased int64  `json:"coinsPurchased" validate:"gt=0"`
	Price          string `json:"price" validate:"required,numeric"`
	TransactionID  string `json:"transactionId" validate:"max=255"`
}

// RefundRequest is the body of PATCH /refund-coins
type RefundRequest struct {
	TaskID string `json:"taskId" validate:"required,len=24,hexadecimal"`
	Amount int64  `json:"amount" validate:"gte=0"`
}

// DeductRequest is the body of PATCH /deduct-coins
type DeductRequest struct {
	TotalPayableAmount int64 `json:"totalPayableAmount" validate:"gt=0"`
}
