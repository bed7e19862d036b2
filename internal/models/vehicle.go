package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vehicle statuses
const (
	VehicleAvailable   = "AVAILABLE"
	VehicleMaintenance = "MAINTENANCE"
	VehicleBusy        = "BUSY"
)

// Vehicle lives in the "cars" collection. Status is BUSY exactly when an
// assigned driver is set; the pairing is enforced at assignment time, not
// continuously.
type Vehicle struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Model            string             `bson:"model" json:"model" validate:"required"`
	Plate            string             `bson:"plate" json:"plate" validate:"required,min=1,max=20"`
	Status           string             `bson:"status" json:"status" validate:"omitempty,oneof=AVAILABLE MAINTENANCE BUSY"`
	AssignedDriverID string             `bson:"assigned_driver_id,omitempty" json:"assignedDriverId,omitempty"`
	Company          string             `bson:"company" json:"company" validate:"required"`
	CreatedAt        time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updatedAt"`
}
