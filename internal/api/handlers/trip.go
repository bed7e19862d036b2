package handlers

import (
	"net/http"
	"strconv"

	"fleet-coordinator/internal/services"
	"fleet-coordinator/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type TripHandler struct {
	tripService      *services.TripService
	fleetViewService *services.FleetViewService
	validator        *validator.Validate
}

func NewTripHandler(tripService *services.TripService, fleetViewService *services.FleetViewService) *TripHandler {
	return &TripHandler{
		tripService:      tripService,
		fleetViewService: fleetViewService,
		validator:        validator.New(),
	}
}

// GetTrips returns the dashboard trip list with resolved driver info,
// scoped to the caller's company. System-wide viewers may narrow by
// status and company query parameters.
func (h *TripHandler) GetTrips(c *gin.Context) {
	viewer := viewerFromContext(c)

	filter := services.TripFilter{
		Status:  c.Query("status"),
		Company: c.Query("company"),
	}

	trips, err := h.fleetViewService.AdminTripView(viewer, filter)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve trips", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trips retrieved successfully", trips)
}

// GetMissions returns the caller's missions: trips on the vehicle they are
// assigned to. Pass active=true to hide completed trips.
func (h *TripHandler) GetMissions(c *gin.Context) {
	viewer := viewerFromContext(c)

	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))

	missions, err := h.fleetViewService.DriverMissions(viewer.UserID, activeOnly)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve missions", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Missions retrieved successfully", missions)
}

// GetLiveMap returns trips currently in progress with a reported position,
// joined with their vehicle and driver. Supports plate and city search.
func (h *TripHandler) GetLiveMap(c *gin.Context) {
	viewer := viewerFromContext(c)

	entries, err := h.fleetViewService.LiveMap(viewer, c.Query("search"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve live map", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Live map retrieved successfully", entries)
}

// GetTrip returns a single trip by ID
func (h *TripHandler) GetTrip(c *gin.Context) {
	id := c.Param("id")

	trip, err := h.tripService.GetTripByID(id)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Trip not found", err)
		return
	}

	viewer := viewerFromContext(c)
	if !viewer.SeesAllCompanies() && trip.Company != viewer.Company {
		utils.ErrorResponse(c, http.StatusForbidden, "Trip belongs to another company", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip retrieved successfully", trip)
}

// CreateTrip schedules a new trip
func (h *TripHandler) CreateTrip(c *gin.Context) {
	var req services.CreateTripRequest
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

	trip, err := h.tripService.CreateTrip(&req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to create trip", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Trip created successfully", trip)
}

// authorizeTrip loads a trip and rejects callers outside its company.
// Writes the error response itself; callers bail out on false.
func (h *TripHandler) authorizeTrip(c *gin.Context, id string) bool {
	trip, err := h.tripService.GetTripByID(id)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Trip not found", err)
		return false
	}

	viewer := viewerFromContext(c)
	if !viewer.SeesAllCompanies() && trip.Company != viewer.Company {
		utils.ErrorResponse(c, http.StatusForbidden, "Trip belongs to another company", nil)
		return false
	}

	return true
}

// UpdateStatus moves a trip between PENDING, IN_PROGRESS and COMPLETED
func (h *TripHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")
	if !h.authorizeTrip(c, id) {
		return
	}

	var req struct {
		Status string `json:"status" validate:"required,oneof=PENDING IN_PROGRESS COMPLETED"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	trip, err := h.tripService.UpdateStatus(id, req.Status)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to update trip status", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip status updated successfully", trip)
}

// ToggleParcel flips the delivered flag for one parcel
func (h *TripHandler) ToggleParcel(c *gin.Context) {
	id := c.Param("id")
	if !h.authorizeTrip(c, id) {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid parcel index", err)
		return
	}

	trip, err := h.tripService.ToggleParcelDelivered(id, index)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to update parcel", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Parcel updated successfully", trip)
}

// TogglePassenger flips the dropped-off flag for one passenger
func (h *TripHandler) TogglePassenger(c *gin.Context) {
	id := c.Param("id")
	if !h.authorizeTrip(c, id) {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid passenger index", err)
		return
	}

	trip, err := h.tripService.TogglePassengerDropoff(id, index)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to update passenger", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Passenger updated successfully", trip)
}

// AddItems appends supplementary parcels and passengers to a trip and
// notifies the assigned driver
func (h *TripHandler) AddItems(c *gin.Context) {
	id := c.Param("id")
	if !h.authorizeTrip(c, id) {
		return
	}

	var req services.AddItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	viewer := viewerFromContext(c)

	trip, err := h.tripService.AddSupplementaryItems(id, viewer.UserID, &req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to add items", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Items added successfully", trip)
}

// AcknowledgeItems clears the new-items indicator once the driver has seen
// the supplement
func (h *TripHandler) AcknowledgeItems(c *gin.Context) {
	id := c.Param("id")
	if !h.authorizeTrip(c, id) {
		return
	}

	if err := h.tripService.AcknowledgeNewItems(id); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to acknowledge items", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Items acknowledged successfully", nil)
}

// UpdatePosition records the trip's live location and status. The route is
// driver-only; the company check here keeps drivers off other fleets' trips.
func (h *TripHandler) UpdatePosition(c *gin.Context) {
	id := c.Param("id")
	if !h.authorizeTrip(c, id) {
		return
	}

	var req services.UpdatePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	if err := h.tripService.UpdatePosition(id, &req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to update position", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Position updated successfully", nil)
}

// DeleteTrip removes a trip
func (h *TripHandler) DeleteTrip(c *gin.Context) {
	id := c.Param("id")
	if !h.authorizeTrip(c, id) {
		return
	}

	if err := h.tripService.DeleteTrip(id); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to delete trip", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip deleted successfully", nil)
}
