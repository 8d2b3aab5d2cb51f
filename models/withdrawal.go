package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "pending"
	WithdrawalApproved WithdrawalStatus = "approved"
)

// Withdrawal is a worker's request to cash out coins. The balance is only checked and
// debited when an admin approves it.
type Withdrawal struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkerEmail     string             `bson:"workerEmail" json:"workerEmail"`
	WorkerName      string             `bson:"workerName" json:"workerName"`
	WithdrawalCoins int64              `bson:"withdrawalCoins" json:"withdrawalCoins"`
	PaymentSystem   string             `bson:"paymentSystem" json:"paymentSystem"`
	AccountNumber   string             `bson:"accountNumber,omitempty" json:"accountNumber,omitempty"`
	Status          WithdrawalStatus   `bson:"status" json:"status"`
	WithdrawDate    time.Time          `bson:"withdrawDate" json:"withdrawDate"`
	ProcessedAt     *time.Time         `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
}

// WithdrawalRequest is the body of POST /withdrawals
type WithdrawalRequest struct {
	WorkerName      string `json:"workerName" validate:"max=120"`
	WithdrawalCoins int64  `json:"withdrawalCoins"`
	PaymentSystem   string `json:"paymentSystem" validate:"required,max=60"`
	AccountNumber   string `json:"accountNumber" validate:"max=60"`
}
