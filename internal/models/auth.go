package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthToken records an issued JWT by hash so sessions can be revoked.
type AuthToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id" validate:"required"`
	TokenHash string             `bson:"token_hash" json:"-"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	IsRevoked bool               `bson:"is_revoked" json:"is_revoked"`
	UserAgent string             `bson:"user_agent" json:"user_agent"`
	IPAddress string             `bson:"ip_address" json:"ip_address"`
}

type LoginRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}
