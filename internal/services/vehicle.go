package services

import (
	"errors"
	"fmt"
	"time"

	"fleet-coordinator/internal/models"
	"fleet-coordinator/internal/repository"
	"fleet-coordinator/internal/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VehicleService struct {
	vehicleRepo *repository.VehicleRepository
	userRepo    *repository.UserRepository
	wsManager   websocket.WebSocketManager
}

func NewVehicleService(vehicleRepo *repository.VehicleRepository) *VehicleService {
	return &VehicleService{
		vehicleRepo: vehicleRepo,
	}
}

// SetUserRepository allows setting the user lookup for driver validation
func (s *VehicleService) SetUserRepository(userRepo *repository.UserRepository) {
	s.userRepo = userRepo
}

// SetWebSocketManager allows setting the WebSocket manager for live updates
func (s *VehicleService) SetWebSocketManager(wsManager websocket.WebSocketManager) {
	s.wsManager = wsManager
}

type CreateVehicleRequest struct {
	Model   string `json:"model" validate:"required,min=1,max=100"`
	Plate   string `json:"plate" validate:"required,min=2,max=20"`
	Company string `json:"company" validate:"required"`
}

type UpdateVehicleRequest struct {
	Model   string `json:"model,omitempty" validate:"omitempty,min=1,max=100"`
	Plate   string `json:"plate,omitempty" validate:"omitempty,min=2,max=20"`
	Company string `json:"company,omitempty"`
}

func (s *VehicleService) CreateVehicle(req *CreateVehicleRequest) (*models.Vehicle, error) {
	existing, _ := s.vehicleRepo.FindByPlate(req.Plate)
	if existing != nil {
		return nil, errors.New("license plate already exists")
	}

	vehicle := &models.Vehicle{
		ID:        primitive.NewObjectID(),
		Model:     req.Model,
		Plate:     req.Plate,
		Status:    models.VehicleAvailable,
		Company:   req.Company,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	created, err := s.vehicleRepo.Create(vehicle)
	if err != nil {
		return nil, err
	}

	s.publishChange(websocket.ActionCreate, created)
	return created, nil
}

func (s *VehicleService) GetAllVehicles() ([]*models.Vehicle, error) {
	return s.vehicleRepo.FindAll()
}

func (s *VehicleService) GetVehiclesByCompany(company string) ([]*models.Vehicle, error) {
	return s.vehicleRepo.FindByCompany(company)
}

func (s *VehicleService) GetVehicleByID(id string) (*models.Vehicle, error) {
	return s.vehicleRepo.FindByID(id)
}

func (s *VehicleService) GetVehicleForDriver(driverID string) (*models.Vehicle, error) {
	return s.vehicleRepo.FindByAssignedDriver(driverID)
}

func (s *VehicleService) UpdateVehicle(id string, req *UpdateVehicleRequest) (*models.Vehicle, error) {
	vehicle, err := s.vehicleRepo.FindByID(id)
	if err != nil {
		return nil, errors.New("vehicle not found")
	}

	if req.Plate != "" && req.Plate != vehicle.Plate {
		existing, _ := s.vehicleRepo.FindByPlate(req.Plate)
		if existing != nil && existing.ID.Hex() != id {
			return nil, errors.New("license plate already exists")
		}
		vehicle.Plate = req.Plate
	}
	if req.Model != "" {
		vehicle.Model = req.Model
	}
	if req.Company != "" {
		vehicle.Company = req.Company
	}

	vehicle.UpdatedAt = time.Now()

	updated, err := s.vehicleRepo.Update(id, vehicle)
	if err != nil {
		return nil, err
	}

	s.publishChange(websocket.ActionUpdate, updated)
	return updated, nil
}

// AssignDriver points the vehicle at an active driver and marks it BUSY.
// A vehicle holds at most one driver; assigning over an existing driver
// replaces them.
func (s *VehicleService) AssignDriver(id string, driverID string) (*models.Vehicle, error) {
	vehicle, err := s.vehicleRepo.FindByID(id)
	if err != nil {
		return nil, errors.New("vehicle not found")
	}

	if vehicle.Status == models.VehicleMaintenance {
		return nil, errors.New("vehicle is under maintenance")
	}

	if s.userRepo != nil {
		driver, err := s.userRepo.FindByID(driverID)
		if err != nil {
			return nil, errors.New("driver not found")
		}
		if driver.Role != models.RoleDriver {
			return nil, errors.New("user is not a driver")
		}
		if !driver.IsActive {
			return nil, errors.New("driver account is not active")
		}

		// One vehicle per driver: release any other vehicle they hold.
		if current, err := s.vehicleRepo.FindByAssignedDriver(driverID); err == nil && current.ID.Hex() != id {
			if err := s.vehicleRepo.ReleaseDriver(current.ID.Hex()); err != nil {
				return nil, err
			}
			s.publishChange(websocket.ActionUpdate, current)
		}
	}

	if err := s.vehicleRepo.AssignDriver(id, driverID); err != nil {
		return nil, err
	}

	updated, err := s.vehicleRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	s.publishChange(websocket.ActionUpdate, updated)
	return updated, nil
}

// ReleaseDriver clears the assignment and returns the vehicle to AVAILABLE
// in the same write.
func (s *VehicleService) ReleaseDriver(id string) (*models.Vehicle, error) {
	if err := s.vehicleRepo.ReleaseDriver(id); err != nil {
		return nil, err
	}

	vehicle, err := s.vehicleRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	s.publishChange(websocket.ActionUpdate, vehicle)
	return vehicle, nil
}

// SetMaintenance moves the vehicle in or out of the maintenance pool. A
// vehicle with an assigned driver must be released first.
func (s *VehicleService) SetMaintenance(id string, underMaintenance bool) (*models.Vehicle, error) {
	vehicle, err := s.vehicleRepo.FindByID(id)
	if err != nil {
		return nil, errors.New("vehicle not found")
	}

	if underMaintenance && vehicle.AssignedDriverID != "" {
		return nil, errors.New("release the assigned driver before maintenance")
	}

	status := models.VehicleAvailable
	if underMaintenance {
		status = models.VehicleMaintenance
	}

	if err := s.vehicleRepo.UpdateStatus(id, status); err != nil {
		return nil, err
	}

	updated, err := s.vehicleRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	s.publishChange(websocket.ActionUpdate, updated)
	return updated, nil
}

func (s *VehicleService) DeleteVehicle(id string) error {
	vehicle, err := s.vehicleRepo.FindByID(id)
	if err != nil {
		return errors.New("vehicle not found")
	}

	if vehicle.AssignedDriverID != "" {
		return errors.New("cannot delete a vehicle with an assigned driver")
	}

	if err := s.vehicleRepo.Delete(id); err != nil {
		return err
	}

	s.publishChange(websocket.ActionDelete, vehicle)
	return nil
}

func (s *VehicleService) publishChange(action string, vehicle *models.Vehicle) {
	if s.wsManager == nil || vehicle == nil {
		return
	}

	event := websocket.ChangeEvent{
		Collection: websocket.CollectionCars,
		Action:     action,
		DocumentID: vehicle.ID.Hex(),
		Company:    vehicle.Company,
		Data: map[string]interface{}{
			"status":           vehicle.Status,
			"assignedDriverId": vehicle.AssignedDriverID,
		},
		Timestamp: time.Now(),
		Priority:  websocket.PriorityMedium,
	}

	if err := s.wsManager.BroadcastChange(event); err != nil {
		fmt.Printf("Failed to broadcast vehicle change: %v\n", err)
	}
}
