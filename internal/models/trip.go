package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trip statuses; progression is PENDING -> IN_PROGRESS -> COMPLETED by
// driver action. The store does not guard against regressions.
const (
	TripPending    = "PENDING"
	TripInProgress = "IN_PROGRESS"
	TripCompleted  = "COMPLETED"
)

type Trip struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Departure       string             `bson:"departure" json:"departure" validate:"required"`
	DepartureLat    float64            `bson:"departure_lat" json:"departureLat"`
	DepartureLng    float64            `bson:"departure_lng" json:"departureLng"`
	Destination     string             `bson:"destination" json:"destination" validate:"required"`
	DestinationLat  float64            `bson:"destination_lat" json:"destinationLat"`
	DestinationLng  float64            `bson:"destination_lng" json:"destinationLng"`
	ScheduledDate   time.Time          `bson:"scheduled_date" json:"scheduledDate"`
	Status          string             `bson:"status" json:"status"`
	DriverID        string             `bson:"driver_id,omitempty" json:"driverId,omitempty"`
	VehicleID       string             `bson:"vehicle_id,omitempty" json:"vehicleId,omitempty"`
	Company         string             `bson:"company" json:"company" validate:"required"`
	CurrentLocation *TripLocation      `bson:"current_location,omitempty" json:"currentLocation,omitempty"`
	Parcels         []Parcel           `bson:"parcels" json:"parcels"`
	Passengers      []Passenger        `bson:"passengers" json:"passengers"`
	ExtraRequests   []ExtraRequest     `bson:"extra_requests" json:"extraRequests"`
	HasNewItems     bool               `bson:"has_new_items" json:"hasNewItems"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updatedAt"`
}

type TripLocation struct {
	Lat       float64   `bson:"lat" json:"lat"`
	Lng       float64   `bson:"lng" json:"lng"`
	City      string    `bson:"city" json:"city"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Parcel is embedded in its Trip and has no independent lifecycle.
type Parcel struct {
	Description      string  `bson:"description" json:"description" validate:"required"`
	RecipientName    string  `bson:"recipient_name" json:"recipientName" validate:"required"`
	RecipientPhone   string  `bson:"recipient_phone" json:"recipientPhone"`
	RecipientAddress string  `bson:"recipient_address" json:"recipientAddress"`
	Weight           float64 `bson:"weight" json:"weight"`
	Delivered        bool    `bson:"delivered" json:"delivered"`
}

type Passenger struct {
	Name       string `bson:"name" json:"name" validate:"required"`
	Phone      string `bson:"phone" json:"phone"`
	Pickup     string `bson:"pickup" json:"pickup"`
	Dropoff    string `bson:"dropoff" json:"dropoff"`
	DroppedOff bool   `bson:"dropped_off" json:"droppedOff"`
}

// ExtraRequest records one supplementary-items addition to an in-flight trip.
type ExtraRequest struct {
	ParcelCount    int       `bson:"parcel_count" json:"parcelCount"`
	PassengerCount int       `bson:"passenger_count" json:"passengerCount"`
	RequestedBy    string    `bson:"requested_by" json:"requestedBy"`
	RequestedAt    time.Time `bson:"requested_at" json:"requestedAt"`
}
