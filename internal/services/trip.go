package services

import (
	"errors"
	"fmt"
	"time"

	"fleet-coordinator/internal/models"
	"fleet-coordinator/internal/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TripStore is the slice of the trip repository the service needs; the
// indirection keeps the mutation logic testable without a database.
type TripStore interface {
	Create(trip *models.Trip) (*models.Trip, error)
	FindByID(id string) (*models.Trip, error)
	FindAll() ([]*models.Trip, error)
	FindByCompany(company string) ([]*models.Trip, error)
	UpdateStatus(id string, status string) error
	UpdatePosition(id string, location models.TripLocation, status string) error
	SetParcelDelivered(id string, index int, delivered bool) error
	SetPassengerDroppedOff(id string, index int, droppedOff bool) error
	AppendItems(id string, parcels []models.Parcel, passengers []models.Passenger, request models.ExtraRequest) error
	ClearNewItemsFlag(id string) error
	Delete(id string) error
}

// VehicleFinder resolves a vehicle for driver fallback lookups.
type VehicleFinder interface {
	FindByID(id string) (*models.Vehicle, error)
}

// Notifier enqueues one in-app notification (and its push companion).
type Notifier interface {
	Notify(userID, message, notificationType string) error
}

type TripService struct {
	tripStore   TripStore
	vehicleRepo VehicleFinder
	notifier    Notifier
	wsManager   websocket.WebSocketManager
}

func NewTripService(tripStore TripStore) *TripService {
	return &TripService{
		tripStore: tripStore,
	}
}

// SetVehicleFinder allows setting the vehicle lookup for driver fallback
func (s *TripService) SetVehicleFinder(vehicleRepo VehicleFinder) {
	s.vehicleRepo = vehicleRepo
}

// SetNotifier allows setting the notification sink for supplement alerts
func (s *TripService) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

// SetWebSocketManager allows setting the WebSocket manager for live updates
func (s *TripService) SetWebSocketManager(wsManager websocket.WebSocketManager) {
	s.wsManager = wsManager
}

type CreateTripRequest struct {
	Departure      string             `json:"departure" validate:"required"`
	DepartureLat   float64            `json:"departureLat"`
	DepartureLng   float64            `json:"departureLng"`
	Destination    string             `json:"destination" validate:"required"`
	DestinationLat float64            `json:"destinationLat"`
	DestinationLng float64            `json:"destinationLng"`
	ScheduledDate  time.Time          `json:"scheduledDate"`
	DriverID       string             `json:"driverId,omitempty"`
	VehicleID      string             `json:"vehicleId,omitempty"`
	Company        string             `json:"company" validate:"required"`
	Parcels        []models.Parcel    `json:"parcels,omitempty"`
	Passengers     []models.Passenger `json:"passengers,omitempty"`
}

type UpdatePositionRequest struct {
	Lat    float64 `json:"lat" validate:"min=-90,max=90"`
	Lng    float64 `json:"lng" validate:"min=-180,max=180"`
	City   string  `json:"city"`
	Status string  `json:"status" validate:"required,oneof=PENDING IN_PROGRESS COMPLETED"`
}

type AddItemsRequest struct {
	Parcels    []models.Parcel    `json:"parcels,omitempty"`
	Passengers []models.Passenger `json:"passengers,omitempty"`
}

// CreateTrip inserts a new PENDING trip with the supplied (or empty)
// parcel and passenger lists and an empty supplementary-request history.
func (s *TripService) CreateTrip(req *CreateTripRequest) (*models.Trip, error) {
	parcels := req.Parcels
	if parcels == nil {
		parcels = []models.Parcel{}
	}
	passengers := req.Passengers
	if passengers == nil {
		passengers = []models.Passenger{}
	}

	trip := &models.Trip{
		ID:             primitive.NewObjectID(),
		Departure:      req.Departure,
		DepartureLat:   req.DepartureLat,
		DepartureLng:   req.DepartureLng,
		Destination:    req.Destination,
		DestinationLat: req.DestinationLat,
		DestinationLng: req.DestinationLng,
		ScheduledDate:  req.ScheduledDate,
		Status:         models.TripPending,
		DriverID:       req.DriverID,
		VehicleID:      req.VehicleID,
		Company:        req.Company,
		Parcels:        parcels,
		Passengers:     passengers,
		ExtraRequests:  []models.ExtraRequest{},
		HasNewItems:    false,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	created, err := s.tripStore.Create(trip)
	if err != nil {
		return nil, err
	}

	s.publishChange(websocket.ActionCreate, created, websocket.PriorityMedium)
	return created, nil
}

func (s *TripService) GetTripByID(id string) (*models.Trip, error) {
	return s.tripStore.FindByID(id)
}

func (s *TripService) GetAllTrips() ([]*models.Trip, error) {
	return s.tripStore.FindAll()
}

func (s *TripService) GetTripsByCompany(company string) ([]*models.Trip, error) {
	return s.tripStore.FindByCompany(company)
}

// UpdateStatus writes the requested status as given. Forward progression
// PENDING -> IN_PROGRESS -> COMPLETED is a caller convention enforced by
// which actions each role is offered, not by the store.
func (s *TripService) UpdateStatus(id string, status string) (*models.Trip, error) {
	switch status {
	case models.TripPending, models.TripInProgress, models.TripCompleted:
	default:
		return nil, errors.New("invalid trip status")
	}

	if err := s.tripStore.UpdateStatus(id, status); err != nil {
		return nil, err
	}

	trip, err := s.tripStore.FindByID(id)
	if err != nil {
		return nil, err
	}

	s.publishChange(websocket.ActionUpdate, trip, websocket.PriorityHigh)
	return trip, nil
}

// ToggleParcelDelivered flips the delivered flag of one parcel. Each call
// is one write, including a toggle back to the original value.
func (s *TripService) ToggleParcelDelivered(id string, index int) (*models.Trip, error) {
	trip, err := s.tripStore.FindByID(id)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(trip.Parcels) {
		return nil, errors.New("parcel index out of range")
	}

	if err := s.tripStore.SetParcelDelivered(id, index, !trip.Parcels[index].Delivered); err != nil {
		return nil, err
	}

	updated, err := s.tripStore.FindByID(id)
	if err != nil {
		return nil, err
	}

	s.publishChange(websocket.ActionUpdate, updated, websocket.PriorityMedium)
	return updated, nil
}

func (s *TripService) TogglePassengerDropoff(id string, index int) (*models.Trip, error) {
	trip, err := s.tripStore.FindByID(id)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(trip.Passengers) {
		return nil, errors.New("passenger index out of range")
	}

	if err := s.tripStore.SetPassengerDroppedOff(id, index, !trip.Passengers[index].DroppedOff); err != nil {
		return nil, err
	}

	updated, err := s.tripStore.FindByID(id)
	if err != nil {
		return nil, err
	}

	s.publishChange(websocket.ActionUpdate, updated, websocket.PriorityMedium)
	return updated, nil
}

// AddSupplementaryItems appends parcels and passengers to an in-flight
// trip, raises the has-new-items flag and, when the trip resolves to a
// driver, enqueues exactly one notification describing the counts added.
// The notification write is independent of the list write: a failure after
// the append leaves the trip updated with no notification sent.
func (s *TripService) AddSupplementaryItems(id string, requestedBy string, req *AddItemsRequest) (*models.Trip, error) {
	if len(req.Parcels) == 0 && len(req.Passengers) == 0 {
		return nil, errors.New("nothing to add")
	}

	trip, err := s.tripStore.FindByID(id)
	if err != nil {
		return nil, err
	}

	request := models.ExtraRequest{
		ParcelCount:    len(req.Parcels),
		PassengerCount: len(req.Passengers),
		RequestedBy:    requestedBy,
		RequestedAt:    time.Now(),
	}

	if err := s.tripStore.AppendItems(id, req.Parcels, req.Passengers, request); err != nil {
		return nil, err
	}

	if driverID := s.resolveDriverID(trip); driverID != "" && s.notifier != nil {
		message := supplementMessage(len(req.Parcels), len(req.Passengers))
		if err := s.notifier.Notify(driverID, message, models.NotificationAlert); err != nil {
			// The trip update already landed; the driver just misses the
			// heads-up until the next sync.
			fmt.Printf("Failed to notify driver %s about supplement: %v\n", driverID, err)
		}
	}

	updated, err := s.tripStore.FindByID(id)
	if err != nil {
		return nil, err
	}

	s.publishChange(websocket.ActionUpdate, updated, websocket.PriorityHigh)
	return updated, nil
}

// AcknowledgeNewItems clears the has-new-items flag once the driver has
// seen the supplement.
func (s *TripService) AcknowledgeNewItems(id string) error {
	return s.tripStore.ClearNewItemsFlag(id)
}

// UpdatePosition overwrites the trip's live location and status together.
func (s *TripService) UpdatePosition(id string, req *UpdatePositionRequest) error {
	location := models.TripLocation{
		Lat:       req.Lat,
		Lng:       req.Lng,
		City:      req.City,
		Timestamp: time.Now(),
	}

	if err := s.tripStore.UpdatePosition(id, location, req.Status); err != nil {
		return err
	}

	trip, err := s.tripStore.FindByID(id)
	if err == nil {
		s.publishChange(websocket.ActionUpdate, trip, websocket.PriorityLow)
	}
	return nil
}

func (s *TripService) DeleteTrip(id string) error {
	trip, err := s.tripStore.FindByID(id)
	if err != nil {
		return err
	}

	if err := s.tripStore.Delete(id); err != nil {
		return err
	}

	s.publishChange(websocket.ActionDelete, trip, websocket.PriorityMedium)
	return nil
}

// resolveDriverID prefers the trip's direct reference and falls back to the
// assigned driver of the trip's vehicle.
func (s *TripService) resolveDriverID(trip *models.Trip) string {
	if trip.DriverID != "" {
		return trip.DriverID
	}
	if trip.VehicleID == "" || s.vehicleRepo == nil {
		return ""
	}
	vehicle, err := s.vehicleRepo.FindByID(trip.VehicleID)
	if err != nil {
		return ""
	}
	return vehicle.AssignedDriverID
}

// supplementMessage describes a supplementary addition the way the driver
// app displays it.
func supplementMessage(parcels, passengers int) string {
	switch {
	case parcels > 0 && passengers > 0:
		return fmt.Sprintf("Nouvelle demande: %d Colis et %d Passagers ajoutés à votre mission", parcels, passengers)
	case parcels > 0:
		return fmt.Sprintf("Nouvelle demande: %d Colis ajoutés à votre mission", parcels)
	default:
		return fmt.Sprintf("Nouvelle demande: %d Passagers ajoutés à votre mission", passengers)
	}
}

func (s *TripService) publishChange(action string, trip *models.Trip, priority string) {
	if s.wsManager == nil || trip == nil {
		return
	}

	event := websocket.ChangeEvent{
		Collection: websocket.CollectionTrips,
		Action:     action,
		DocumentID: trip.ID.Hex(),
		Company:    trip.Company,
		Data: map[string]interface{}{
			"status":      trip.Status,
			"hasNewItems": trip.HasNewItems,
		},
		Timestamp: time.Now(),
		Priority:  priority,
	}

	if err := s.wsManager.BroadcastChange(event); err != nil {
		fmt.Printf("Failed to broadcast trip change: %v\n", err)
	}
}
