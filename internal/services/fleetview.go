package services

import (
	"strings"

	"fleet-coordinator/internal/models"
	"fleet-coordinator/internal/repository"
)

// Viewer is the scope a signed-in user brings to the aggregated views.
// Bootstrap administrators are synthesized by the auth service with role
// SUPER_ADMIN and company "System" without consulting the profile store.
type Viewer struct {
	UserID  string
	Role    string
	Company string
}

// SeesAllCompanies reports whether the mandatory company scope is lifted.
func (v Viewer) SeesAllCompanies() bool {
	return v.Role == models.RoleSuperAdmin || v.Company == models.SystemCompany
}

// DriverInfo carries the resolved driver fields attached to a trip view.
type DriverInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

// TripView is one row of the admin trip table: the trip plus its resolved
// driver. Driver stays nil when neither the trip nor its vehicle resolves
// one; the trip is still listed.
type TripView struct {
	Trip   *models.Trip `json:"trip"`
	Driver *DriverInfo  `json:"driver"`
}

// TripFilter is the optional, user-chosen narrowing on top of the mandatory
// company scope. Empty fields do not filter.
type TripFilter struct {
	Status  string
	Company string
}

// LiveMapEntry is one marker on the live map: an in-progress trip with its
// vehicle and driver resolved.
type LiveMapEntry struct {
	Trip    *models.Trip    `json:"trip"`
	Vehicle *models.Vehicle `json:"vehicle"`
	Driver  *DriverInfo     `json:"driver"`
}

// BuildAdminTripView joins every trip with a driver profile, resolving the
// driver by the trip's direct reference first and falling back to the
// vehicle's assigned driver. The company scope is mandatory; the optional
// filter is additive (AND).
func BuildAdminTripView(viewer Viewer, trips []*models.Trip, vehicles []*models.Vehicle, users []*models.User, filter TripFilter) []TripView {
	vehiclesByID := indexVehicles(vehicles)
	usersByID := indexUsers(users)

	views := make([]TripView, 0, len(trips))
	for _, trip := range trips {
		if !viewer.SeesAllCompanies() && trip.Company != viewer.Company {
			continue
		}
		if filter.Status != "" && trip.Status != filter.Status {
			continue
		}
		if filter.Company != "" && trip.Company != filter.Company {
			continue
		}

		views = append(views, TripView{
			Trip:   trip,
			Driver: resolveDriver(trip, vehiclesByID, usersByID),
		})
	}

	return views
}

// BuildDriverMissions returns the trips assigned to the vehicle the driver
// currently holds. No vehicle means no missions. When activeOnly is set,
// completed trips are excluded.
func BuildDriverMissions(driverID string, vehicles []*models.Vehicle, trips []*models.Trip, activeOnly bool) []*models.Trip {
	var vehicle *models.Vehicle
	for _, candidate := range vehicles {
		if candidate.AssignedDriverID == driverID && driverID != "" {
			vehicle = candidate
			break
		}
	}
	if vehicle == nil {
		return []*models.Trip{}
	}

	vehicleID := vehicle.ID.Hex()
	missions := make([]*models.Trip, 0)
	for _, trip := range trips {
		if trip.VehicleID != vehicleID {
			continue
		}
		if activeOnly && trip.Status == models.TripCompleted {
			continue
		}
		missions = append(missions, trip)
	}

	return missions
}

// BuildLiveMap filters trips to in-progress ones that have reported a
// position, applies the company scope and matches an optional free-text
// search against the vehicle plate or the current city (case-insensitive
// substring).
func BuildLiveMap(viewer Viewer, trips []*models.Trip, vehicles []*models.Vehicle, users []*models.User, search string) []LiveMapEntry {
	vehiclesByID := indexVehicles(vehicles)
	usersByID := indexUsers(users)
	needle := strings.ToLower(strings.TrimSpace(search))

	entries := make([]LiveMapEntry, 0)
	for _, trip := range trips {
		if trip.Status != models.TripInProgress || trip.CurrentLocation == nil {
			continue
		}
		if !viewer.SeesAllCompanies() && trip.Company != viewer.Company {
			continue
		}

		vehicle := vehiclesByID[trip.VehicleID]

		if needle != "" {
			plate := ""
			if vehicle != nil {
				plate = strings.ToLower(vehicle.Plate)
			}
			city := strings.ToLower(trip.CurrentLocation.City)
			if !strings.Contains(plate, needle) && !strings.Contains(city, needle) {
				continue
			}
		}

		entries = append(entries, LiveMapEntry{
			Trip:    trip,
			Vehicle: vehicle,
			Driver:  resolveDriver(trip, vehiclesByID, usersByID),
		})
	}

	return entries
}

// resolveDriver prefers the trip's direct driver reference and falls back
// to the assigned driver of the trip's vehicle.
func resolveDriver(trip *models.Trip, vehiclesByID map[string]*models.Vehicle, usersByID map[string]*models.User) *DriverInfo {
	driverID := trip.DriverID
	if driverID == "" {
		if vehicle := vehiclesByID[trip.VehicleID]; vehicle != nil {
			driverID = vehicle.AssignedDriverID
		}
	}
	if driverID == "" {
		return nil
	}

	user := usersByID[driverID]
	if user == nil {
		return nil
	}

	return &DriverInfo{
		ID:          user.ID.Hex(),
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Phone:       user.Phone,
	}
}

func indexVehicles(vehicles []*models.Vehicle) map[string]*models.Vehicle {
	byID := make(map[string]*models.Vehicle, len(vehicles))
	for _, vehicle := range vehicles {
		byID[vehicle.ID.Hex()] = vehicle
	}
	return byID
}

func indexUsers(users []*models.User) map[string]*models.User {
	byID := make(map[string]*models.User, len(users))
	for _, user := range users {
		byID[user.ID.Hex()] = user
	}
	return byID
}

// FleetViewService fetches fresh snapshots and runs the joins above. Every
// call recomputes the full view; there is no pagination and no caching, the
// stream consumers simply re-request on change events.
type FleetViewService struct {
	tripRepo    *repository.TripRepository
	vehicleRepo *repository.VehicleRepository
	userRepo    *repository.UserRepository
}

func NewFleetViewService(tripRepo *repository.TripRepository, vehicleRepo *repository.VehicleRepository, userRepo *repository.UserRepository) *FleetViewService {
	return &FleetViewService{
		tripRepo:    tripRepo,
		vehicleRepo: vehicleRepo,
		userRepo:    userRepo,
	}
}

func (s *FleetViewService) AdminTripView(viewer Viewer, filter TripFilter) ([]TripView, error) {
	trips, err := s.tripRepo.FindAll()
	if err != nil {
		return nil, err
	}
	vehicles, err := s.vehicleRepo.FindAll()
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.FindAll()
	if err != nil {
		return nil, err
	}

	return BuildAdminTripView(viewer, trips, vehicles, users, filter), nil
}

func (s *FleetViewService) DriverMissions(driverID string, activeOnly bool) ([]*models.Trip, error) {
	vehicle, err := s.vehicleRepo.FindByAssignedDriver(driverID)
	if err != nil {
		// No vehicle held means an empty mission list, not a failure.
		return []*models.Trip{}, nil
	}

	trips, err := s.tripRepo.FindByVehicle(vehicle.ID.Hex())
	if err != nil {
		return nil, err
	}

	if !activeOnly {
		return trips, nil
	}

	missions := make([]*models.Trip, 0, len(trips))
	for _, trip := range trips {
		if trip.Status != models.TripCompleted {
			missions = append(missions, trip)
		}
	}
	return missions, nil
}

func (s *FleetViewService) LiveMap(viewer Viewer, search string) ([]LiveMapEntry, error) {
	trips, err := s.tripRepo.FindInProgressWithLocation()
	if err != nil {
		return nil, err
	}
	vehicles, err := s.vehicleRepo.FindAll()
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.FindAll()
	if err != nil {
		return nil, err
	}

	return BuildLiveMap(viewer, trips, vehicles, users, search), nil
}
