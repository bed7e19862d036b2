package services

import (
	"errors"
	"testing"
	"time"

	"fleet-coordinator/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeTripStore keeps trips in memory and records mutation calls so tests
// can assert on write patterns, not just end state.
type fakeTripStore struct {
	trips        map[string]*models.Trip
	parcelWrites []bool
}

func newFakeTripStore(trips ...*models.Trip) *fakeTripStore {
	store := &fakeTripStore{trips: make(map[string]*models.Trip)}
	for _, trip := range trips {
		store.trips[trip.ID.Hex()] = trip
	}
	return store
}

func (f *fakeTripStore) Create(trip *models.Trip) (*models.Trip, error) {
	f.trips[trip.ID.Hex()] = trip
	return trip, nil
}

func (f *fakeTripStore) FindByID(id string) (*models.Trip, error) {
	trip, ok := f.trips[id]
	if !ok {
		return nil, errors.New("trip not found")
	}
	return trip, nil
}

func (f *fakeTripStore) FindAll() ([]*models.Trip, error) {
	var out []*models.Trip
	for _, trip := range f.trips {
		out = append(out, trip)
	}
	return out, nil
}

func (f *fakeTripStore) FindByCompany(company string) ([]*models.Trip, error) {
	var out []*models.Trip
	for _, trip := range f.trips {
		if trip.Company == company {
			out = append(out, trip)
		}
	}
	return out, nil
}

func (f *fakeTripStore) UpdateStatus(id string, status string) error {
	trip, ok := f.trips[id]
	if !ok {
		return errors.New("trip not found")
	}
	trip.Status = status
	return nil
}

func (f *fakeTripStore) UpdatePosition(id string, location models.TripLocation, status string) error {
	trip, ok := f.trips[id]
	if !ok {
		return errors.New("trip not found")
	}
	trip.CurrentLocation = &location
	trip.Status = status
	return nil
}

func (f *fakeTripStore) SetParcelDelivered(id string, index int, delivered bool) error {
	trip, ok := f.trips[id]
	if !ok {
		return errors.New("trip not found")
	}
	if index < 0 || index >= len(trip.Parcels) {
		return errors.New("parcel index out of range")
	}
	trip.Parcels[index].Delivered = delivered
	f.parcelWrites = append(f.parcelWrites, delivered)
	return nil
}

func (f *fakeTripStore) SetPassengerDroppedOff(id string, index int, droppedOff bool) error {
	trip, ok := f.trips[id]
	if !ok {
		return errors.New("trip not found")
	}
	if index < 0 || index >= len(trip.Passengers) {
		return errors.New("passenger index out of range")
	}
	trip.Passengers[index].DroppedOff = droppedOff
	return nil
}

func (f *fakeTripStore) AppendItems(id string, parcels []models.Parcel, passengers []models.Passenger, request models.ExtraRequest) error {
	trip, ok := f.trips[id]
	if !ok {
		return errors.New("trip not found")
	}
	trip.Parcels = append(trip.Parcels, parcels...)
	trip.Passengers = append(trip.Passengers, passengers...)
	trip.ExtraRequests = append(trip.ExtraRequests, request)
	trip.HasNewItems = true
	return nil
}

func (f *fakeTripStore) ClearNewItemsFlag(id string) error {
	trip, ok := f.trips[id]
	if !ok {
		return errors.New("trip not found")
	}
	trip.HasNewItems = false
	return nil
}

func (f *fakeTripStore) Delete(id string) error {
	if _, ok := f.trips[id]; !ok {
		return errors.New("trip not found")
	}
	delete(f.trips, id)
	return nil
}

// recordingNotifier captures notifications instead of delivering them.
type recordingNotifier struct {
	userIDs  []string
	messages []string
	types    []string
}

func (r *recordingNotifier) Notify(userID, message, notificationType string) error {
	r.userIDs = append(r.userIDs, userID)
	r.messages = append(r.messages, message)
	r.types = append(r.types, notificationType)
	return nil
}

type fakeVehicleFinder struct {
	vehicles map[string]*models.Vehicle
}

func (f *fakeVehicleFinder) FindByID(id string) (*models.Vehicle, error) {
	vehicle, ok := f.vehicles[id]
	if !ok {
		return nil, errors.New("vehicle not found")
	}
	return vehicle, nil
}

func tripWithParcels(parcels ...models.Parcel) *models.Trip {
	return &models.Trip{
		ID:            primitive.NewObjectID(),
		Departure:     "Paris",
		Destination:   "Lille",
		ScheduledDate: time.Now(),
		Status:        models.TripInProgress,
		Company:       "Acme",
		Parcels:       parcels,
		Passengers:    []models.Passenger{},
		ExtraRequests: []models.ExtraRequest{},
	}
}

func TestCreateTrip_DefaultsToPendingWithEmptyLists(t *testing.T) {
	store := newFakeTripStore()
	service := NewTripService(store)

	trip, err := service.CreateTrip(&CreateTripRequest{
		Departure:   "Paris",
		Destination: "Lyon",
		Company:     "Acme",
	})

	require.NoError(t, err)
	assert.Equal(t, models.TripPending, trip.Status)
	assert.NotNil(t, trip.Parcels)
	assert.Empty(t, trip.Parcels)
	assert.NotNil(t, trip.Passengers)
	assert.Empty(t, trip.Passengers)
	assert.Empty(t, trip.ExtraRequests)
	assert.False(t, trip.HasNewItems)
}

func TestToggleParcelDelivered_TwiceIssuesTwoWrites(t *testing.T) {
	trip := tripWithParcels(models.Parcel{Description: "Box", RecipientName: "Marie"})
	store := newFakeTripStore(trip)
	service := NewTripService(store)

	updated, err := service.ToggleParcelDelivered(trip.ID.Hex(), 0)
	require.NoError(t, err)
	assert.True(t, updated.Parcels[0].Delivered)

	updated, err = service.ToggleParcelDelivered(trip.ID.Hex(), 0)
	require.NoError(t, err)
	assert.False(t, updated.Parcels[0].Delivered)

	// A toggle back to the original value still lands as its own write.
	assert.Equal(t, []bool{true, false}, store.parcelWrites)
}

func TestToggleParcelDelivered_IndexOutOfRange(t *testing.T) {
	trip := tripWithParcels(models.Parcel{Description: "Box"})
	store := newFakeTripStore(trip)
	service := NewTripService(store)

	_, err := service.ToggleParcelDelivered(trip.ID.Hex(), 3)
	assert.Error(t, err)
	assert.Empty(t, store.parcelWrites)
}

func TestAddSupplementaryItems_NotifiesAssignedDriver(t *testing.T) {
	driverID := primitive.NewObjectID().Hex()
	trip := tripWithParcels()
	trip.DriverID = driverID

	store := newFakeTripStore(trip)
	notifier := &recordingNotifier{}

	service := NewTripService(store)
	service.SetNotifier(notifier)

	updated, err := service.AddSupplementaryItems(trip.ID.Hex(), "employee-1", &AddItemsRequest{
		Parcels: []models.Parcel{
			{Description: "A"}, {Description: "B"}, {Description: "C"},
		},
	})

	require.NoError(t, err)
	assert.Len(t, updated.Parcels, 3)
	assert.True(t, updated.HasNewItems)
	require.Len(t, updated.ExtraRequests, 1)
	assert.Equal(t, 3, updated.ExtraRequests[0].ParcelCount)
	assert.Equal(t, "employee-1", updated.ExtraRequests[0].RequestedBy)

	require.Len(t, notifier.messages, 1, "exactly one notification per supplement")
	assert.Equal(t, driverID, notifier.userIDs[0])
	assert.Contains(t, notifier.messages[0], "3 Colis")
	assert.Equal(t, models.NotificationAlert, notifier.types[0])
}

func TestAddSupplementaryItems_DriverResolvedThroughVehicle(t *testing.T) {
	driverID := primitive.NewObjectID().Hex()
	vehicle := &models.Vehicle{
		ID:               primitive.NewObjectID(),
		Plate:            "MN-012-OP",
		Status:           models.VehicleBusy,
		AssignedDriverID: driverID,
		Company:          "Acme",
	}

	trip := tripWithParcels()
	trip.VehicleID = vehicle.ID.Hex()

	store := newFakeTripStore(trip)
	notifier := &recordingNotifier{}

	service := NewTripService(store)
	service.SetNotifier(notifier)
	service.SetVehicleFinder(&fakeVehicleFinder{vehicles: map[string]*models.Vehicle{
		vehicle.ID.Hex(): vehicle,
	}})

	_, err := service.AddSupplementaryItems(trip.ID.Hex(), "employee-1", &AddItemsRequest{
		Passengers: []models.Passenger{{Name: "Luc"}},
	})

	require.NoError(t, err)
	require.Len(t, notifier.userIDs, 1)
	assert.Equal(t, driverID, notifier.userIDs[0])
	assert.Contains(t, notifier.messages[0], "1 Passagers")
}

func TestAddSupplementaryItems_NoDriverNoNotification(t *testing.T) {
	trip := tripWithParcels()
	store := newFakeTripStore(trip)
	notifier := &recordingNotifier{}

	service := NewTripService(store)
	service.SetNotifier(notifier)

	updated, err := service.AddSupplementaryItems(trip.ID.Hex(), "employee-1", &AddItemsRequest{
		Parcels: []models.Parcel{{Description: "A"}},
	})

	require.NoError(t, err)
	assert.True(t, updated.HasNewItems)
	assert.Empty(t, notifier.messages)
}

func TestAddSupplementaryItems_RejectsEmptyRequest(t *testing.T) {
	trip := tripWithParcels()
	store := newFakeTripStore(trip)
	service := NewTripService(store)

	_, err := service.AddSupplementaryItems(trip.ID.Hex(), "employee-1", &AddItemsRequest{})
	assert.Error(t, err)
}

func TestAcknowledgeNewItems_ClearsFlag(t *testing.T) {
	trip := tripWithParcels()
	trip.HasNewItems = true
	store := newFakeTripStore(trip)
	service := NewTripService(store)

	require.NoError(t, service.AcknowledgeNewItems(trip.ID.Hex()))
	assert.False(t, trip.HasNewItems)
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	trip := tripWithParcels()
	store := newFakeTripStore(trip)
	service := NewTripService(store)

	_, err := service.UpdateStatus(trip.ID.Hex(), "CANCELLED")
	assert.Error(t, err)
	assert.Equal(t, models.TripInProgress, trip.Status)
}

func TestUpdatePosition_WritesLocationAndStatusTogether(t *testing.T) {
	trip := tripWithParcels()
	trip.Status = models.TripPending
	store := newFakeTripStore(trip)
	service := NewTripService(store)

	err := service.UpdatePosition(trip.ID.Hex(), &UpdatePositionRequest{
		Lat:    48.85,
		Lng:    2.35,
		City:   "Paris",
		Status: models.TripInProgress,
	})

	require.NoError(t, err)
	require.NotNil(t, trip.CurrentLocation)
	assert.Equal(t, "Paris", trip.CurrentLocation.City)
	assert.Equal(t, models.TripInProgress, trip.Status)
}

func TestSupplementMessage(t *testing.T) {
	assert.Contains(t, supplementMessage(3, 0), "3 Colis")
	assert.Contains(t, supplementMessage(0, 2), "2 Passagers")
	both := supplementMessage(1, 1)
	assert.Contains(t, both, "1 Colis")
	assert.Contains(t, both, "1 Passagers")
}
