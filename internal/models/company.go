package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Company is never hard-deleted; deactivation keeps the name resolvable for
// trips and users that reference it.
type Company struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name" validate:"required,min=1,max=100"`
	ContactEmail string             `bson:"contact_email" json:"contactEmail" validate:"required,email"`
	IsActive     bool               `bson:"is_active" json:"isActive"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}
