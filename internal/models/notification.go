package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types
const (
	NotificationInfo    = "INFO"
	NotificationAlert   = "ALERT"
	NotificationSuccess = "SUCCESS"
)

type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"userId" validate:"required"`
	Message   string             `bson:"message" json:"message" validate:"required"`
	Type      string             `bson:"type" json:"type" validate:"required,oneof=INFO ALERT SUCCESS"`
	Read      bool               `bson:"read" json:"read"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}
