// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role gates which operations an identity may invoke
type Role string

const (
	RoleWorker Role = "Worker"
	RoleBuyer  Role = "Buyer"
	RoleAdmin  Role = "Admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleWorker, RoleBuyer, RoleAdmin:
		return true
	}
	return false
}

// User model
type User struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Email       string             `json:"email" bson:"email"`
	Name        string             `json:"name,omitempty" bson:"name,omitempty"`
	PhotoURL    string             `json:"photoUrl,omitempty" bson:"photoUrl,omitempty"`
	Role        Role               `json:"role" bson:"role"`
	CoinBalance int64              `json:"coinBalance" bson:"coinBalance"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// RegisterRequest is the body of POST /users/:email
type RegisterRequest struct {
	Name     string `json:"name" validate:"max=120"`
	PhotoURL string `json:"photoUrl" validate:"omitempty,url"`
	Role     Role   `json:"role" validate:"required,oneof=Worker Buyer"`
}

// RoleUpdateRequest is the body of PATCH /users/:id
type RoleUpdateRequest struct {
	Role Role `json:"role" validate:"required,oneof=Worker Buyer Admin"`
}

// TokenRequest is the identity payload exchanged for an auth token
type TokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}
