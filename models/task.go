package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task is a unit of paid work posted by a buyer
type Task struct {
	ID               primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	BuyerEmail       string             `json:"buyerEmail" bson:"buyerEmail"`
	BuyerName        string             `json:"buyerName,omitempty" bson:"buyerName,omitempty"`
	Title            string             `json:"title" bson:"title"`
	Detail           string             `json:"detail" bson:"detail"`
	SubmissionInfo   string             `json:"submissionInfo,omitempty" bson:"submissionInfo,omitempty"`
	ImageURL         string             `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	PayPerSubmission int64              `json:"payPerSubmission" bson:"payPerSubmission"`
	RequiredWorkers  int64              `json:"requiredWorkers" bson:"requiredWorkers"`
	CompletionDate   time.Time          `json:"completionDate" bson:"completionDate"`
	CreatedAt        time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// TotalPayable is the coin cost of filling every slot of the task
func (t *Task) TotalPayable() int64 {
	return t.PayPerSubmission * t.RequiredWorkers
}

// CreateTaskRequest is the body of POST /tasks
type CreateTaskRequest struct {
	Title            string    `json:"title" validate:"required,max=200"`
	Detail           string    `json:"detail" validate:"required"`
	SubmissionInfo   string    `json:"submissionInfo"`
	ImageURL         string    `json:"imageUrl" validate:"omitempty,url"`
	PayPerSubmission int64     `json:"payPerSubmission" validate:"gt=0"`
	RequiredWorkers  int64     `json:"requiredWorkers" validate:"gte=0"`
	CompletionDate   time.Time `json:"completionDate" validate:"required"`
}

// TaskUpdate carries the editable fields of a task; nil fields are left untouched
type TaskUpdate struct {
	Title          *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Detail         *string `json:"detail,omitempty"`
	SubmissionInfo *string `json:"submissionInfo,omitempty"`
}

// Empty reports whether the update changes nothing
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Detail == nil && u.SubmissionInfo == nil
}
