package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email       string             `bson:"email" json:"email" validate:"required,email"`
	DisplayName string             `bson:"display_name" json:"display_name"`
	Avatar      string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Presence    string             `bson:"presence" json:"presence"`
	IsActive    bool               `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

func (u *User) Profile() *Profile {
	return &Profile{
		DisplayName: u.DisplayName,
		Avatar:      u.Avatar,
		Presence:    u.Presence,
	}
}
