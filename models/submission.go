package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Terminal reports whether no further transition is allowed
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionApproved || s == SubmissionRejected
}

// Submission is a worker's proof of work against a task. TaskAmount, TaskTitle and
// BuyerEmail are captured when the submission is created and never follow later
// task edits.
type Submission struct {
	ID                primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	TaskID            primitive.ObjectID `json:"taskId" bson:"taskId"`
	TaskTitle         string             `json:"taskTitle" bson:"taskTitle"`
	TaskAmount        int64              `json:"taskAmount" bson:"taskAmount"`
	WorkerEmail       string             `json:"workerEmail" bson:"workerEmail"`
	WorkerName        string             `json:"workerName,omitempty" bson:"workerName,omitempty"`
	BuyerEmail        string             `json:"buyerEmail" bson:"buyerEmail"`
	BuyerName         string             `json:"buyerName,omitempty" bson:"buyerName,omitempty"`
	SubmissionDetails string             `json:"submissionDetails" bson:"submissionDetails"`
	Status            SubmissionStatus   `json:"status" bson:"status"`
	CurrentDate       time.Time          `json:"currentDate" bson:"currentDate"`
	UpdatedAt         time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// SubmitRequest is the body of POST /submissions
type SubmitRequest struct {
	TaskID            string `json:"taskId" validate:"required,len=24,hexadecimal"`
	SubmissionDetails string `json:"submissionDetails" validate:"required"`
}

// SubmissionFilter selects submissions; empty fields match everything
type SubmissionFilter struct {
	WorkerEmail string
	BuyerEmail  string
	Status      SubmissionStatus
}
