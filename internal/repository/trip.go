package repository

import (
	"context"
	"errors"
	"fleet-coordinator/internal/models"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TripRepository struct {
	collection *mongo.Collection
}

func NewTripRepository(db *mongo.Database) *TripRepository {
	return &TripRepository{
		collection: db.Collection("trips"),
	}
}

func (r *TripRepository) Create(trip *models.Trip) (*models.Trip, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, trip)
	if err != nil {
		return nil, err
	}

	trip.ID = result.InsertedID.(primitive.ObjectID)
	return trip, nil
}

func (r *TripRepository) FindByID(id string) (*models.Trip, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid trip ID")
	}

	var trip models.Trip
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&trip)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("trip not found")
		}
		return nil, err
	}

	return &trip, nil
}

func (r *TripRepository) FindAll() ([]*models.Trip, error) {
	return r.findMany(bson.M{})
}

func (r *TripRepository) FindByCompany(company string) ([]*models.Trip, error) {
	return r.findMany(bson.M{"company": company})
}

func (r *TripRepository) FindByVehicle(vehicleID string) ([]*models.Trip, error) {
	return r.findMany(bson.M{"vehicle_id": vehicleID})
}

func (r *TripRepository) FindByDriver(driverID string) ([]*models.Trip, error) {
	return r.findMany(bson.M{"driver_id": driverID})
}

func (r *TripRepository) FindByStatus(status string) ([]*models.Trip, error) {
	return r.findMany(bson.M{"status": status})
}

// FindInProgressWithLocation feeds the live-map view: only moving trips
// that have reported a position at least once.
func (r *TripRepository) FindInProgressWithLocation() ([]*models.Trip, error) {
	return r.findMany(bson.M{
		"status":           models.TripInProgress,
		"current_location": bson.M{"$ne": nil},
	})
}

func (r *TripRepository) findMany(filter bson.M) ([]*models.Trip, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "scheduled_date", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var trips []*models.Trip
	for cursor.Next(ctx) {
		var trip models.Trip
		if err := cursor.Decode(&trip); err != nil {
			return nil, err
		}
		trips = append(trips, &trip)
	}

	return trips, nil
}

func (r *TripRepository) Update(id string, trip *models.Trip) (*models.Trip, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid trip ID")
	}

	trip.UpdatedAt = time.Now()

	update := bson.M{
		"$set": trip,
	}

	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updatedTrip models.Trip
	if err := result.Decode(&updatedTrip); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("trip not found")
		}
		return nil, err
	}

	return &updatedTrip, nil
}

func (r *TripRepository) UpdateStatus(id string, status string) error {
	return r.setFields(id, bson.M{"status": status})
}

// UpdatePosition overwrites the current location and status together, the
// way the driver app reports them.
func (r *TripRepository) UpdatePosition(id string, location models.TripLocation, status string) error {
	return r.setFields(id, bson.M{
		"current_location": location,
		"status":           status,
	})
}

// SetParcelDelivered patches one parcel by index instead of rewriting the
// whole list, so concurrent toggles on different parcels cannot clobber
// each other.
func (r *TripRepository) SetParcelDelivered(id string, index int, delivered bool) error {
	return r.setFields(id, bson.M{
		fmt.Sprintf("parcels.%d.delivered", index): delivered,
	})
}

func (r *TripRepository) SetPassengerDroppedOff(id string, index int, droppedOff bool) error {
	return r.setFields(id, bson.M{
		fmt.Sprintf("passengers.%d.dropped_off", index): droppedOff,
	})
}

// AppendItems appends supplementary parcels and passengers, records the
// extra request and raises the has-new-items flag in a single write. The
// companion notification is written separately and is not atomic with this.
func (r *TripRepository) AppendItems(id string, parcels []models.Parcel, passengers []models.Passenger, request models.ExtraRequest) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("invalid trip ID")
	}

	push := bson.M{
		"extra_requests": request,
	}
	if len(parcels) > 0 {
		push["parcels"] = bson.M{"$each": parcels}
	}
	if len(passengers) > 0 {
		push["passengers"] = bson.M{"$each": passengers}
	}

	update := bson.M{
		"$push": push,
		"$set": bson.M{
			"has_new_items": true,
			"updated_at":    time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return errors.New("trip not found")
	}

	return nil
}

func (r *TripRepository) ClearNewItemsFlag(id string) error {
	return r.setFields(id, bson.M{"has_new_items": false})
}

func (r *TripRepository) setFields(id string, fields bson.M) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("invalid trip ID")
	}

	fields["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": fields})
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return errors.New("trip not found")
	}

	return nil
}

func (r *TripRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("invalid trip ID")
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return errors.New("trip not found")
	}

	return nil
}

func (r *TripRepository) Count() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *TripRepository) CountByStatus(status string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{"status": status})
}

// CreateIndexes creates necessary indexes for the trips collection
func (r *TripRepository) CreateIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "company", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "vehicle_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "driver_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "scheduled_date", Value: -1}},
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "company", Value: 1},
			},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
