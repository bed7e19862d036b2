package handlers

import (
	"net/http"

	"fleet-coordinator/internal/services"
	"fleet-coordinator/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type VehicleHandler struct {
	vehicleService *services.VehicleService
	validator      *validator.Validate
}

func NewVehicleHandler(vehicleService *services.VehicleService) *VehicleHandler {
	return &VehicleHandler{
		vehicleService: vehicleService,
		validator:      validator.New(),
	}
}

// GetVehicles returns the fleet within the caller's company scope
func (h *VehicleHandler) GetVehicles(c *gin.Context) {
	viewer := viewerFromContext(c)

	var (
		vehicles interface{}
		err      error
	)
	if viewer.SeesAllCompanies() {
		vehicles, err = h.vehicleService.GetAllVehicles()
	} else {
		vehicles, err = h.vehicleService.GetVehiclesByCompany(viewer.Company)
	}
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve vehicles", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicles retrieved successfully", vehicles)
}

// GetMyVehicle returns the vehicle assigned to the calling driver
func (h *VehicleHandler) GetMyVehicle(c *gin.Context) {
	viewer := viewerFromContext(c)

	vehicle, err := h.vehicleService.GetVehicleForDriver(viewer.UserID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "No vehicle assigned", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicle retrieved successfully", vehicle)
}

// GetVehicle returns a single vehicle by ID
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	id := c.Param("id")

	vehicle, err := h.vehicleService.GetVehicleByID(id)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Vehicle not found", err)
		return
	}

	viewer := viewerFromContext(c)
	if !viewer.SeesAllCompanies() && vehicle.Company != viewer.Company {
		utils.ErrorResponse(c, http.StatusForbidden, "Vehicle belongs to another company", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicle retrieved successfully", vehicle)
}

// CreateVehicle registers a new vehicle
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	var req services.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	viewer := viewerFromContext(c)
	if !viewer.SeesAllCompanies() {
		req.Company = viewer.Company
	}

	vehicle, err := h.vehicleService.CreateVehicle(&req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to create vehicle", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Vehicle created successfully", vehicle)
}

// UpdateVehicle updates vehicle fields
func (h *VehicleHandler) UpdateVehicle(c *gin.Context) {
	id := c.Param("id")

	var req services.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	vehicle, err := h.vehicleService.UpdateVehicle(id, &req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to update vehicle", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicle updated successfully", vehicle)
}

// AssignDriver points a vehicle at a driver and marks it busy
func (h *VehicleHandler) AssignDriver(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		DriverID string `json:"driverId" validate:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	vehicle, err := h.vehicleService.AssignDriver(id, req.DriverID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to assign driver", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Driver assigned successfully", vehicle)
}

// ReleaseDriver clears a vehicle's driver assignment
func (h *VehicleHandler) ReleaseDriver(c *gin.Context) {
	id := c.Param("id")

	vehicle, err := h.vehicleService.ReleaseDriver(id)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to release driver", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Driver released successfully", vehicle)
}

// SetMaintenance moves a vehicle in or out of the maintenance pool
func (h *VehicleHandler) SetMaintenance(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Maintenance *bool `json:"maintenance" validate:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil || req.Maintenance == nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	vehicle, err := h.vehicleService.SetMaintenance(id, *req.Maintenance)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to change maintenance state", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Maintenance state updated successfully", vehicle)
}

// DeleteVehicle removes a vehicle from the fleet
func (h *VehicleHandler) DeleteVehicle(c *gin.Context) {
	id := c.Param("id")

	if err := h.vehicleService.DeleteVehicle(id); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to delete vehicle", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicle deleted successfully", nil)
}
