package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fleet-coordinator/internal/api/middleware"
	"fleet-coordinator/internal/models"
	"fleet-coordinator/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stubTripStore keeps trips in memory and counts mutation writes so the
// tests can assert that denied requests never reach the store.
type stubTripStore struct {
	trips          map[string]*models.Trip
	statusWrites   int
	positionWrites int
	parcelWrites   int
}

func newStubTripStore(trips ...*models.Trip) *stubTripStore {
	s := &stubTripStore{trips: make(map[string]*models.Trip)}
	for _, trip := range trips {
		s.trips[trip.ID.Hex()] = trip
	}
	return s
}

func (s *stubTripStore) Create(trip *models.Trip) (*models.Trip, error) {
	s.trips[trip.ID.Hex()] = trip
	return trip, nil
}

func (s *stubTripStore) FindByID(id string) (*models.Trip, error) {
	trip, ok := s.trips[id]
	if !ok {
		return nil, errors.New("trip not found")
	}
	return trip, nil
}

func (s *stubTripStore) FindAll() ([]*models.Trip, error) {
	return nil, nil
}

func (s *stubTripStore) FindByCompany(string) ([]*models.Trip, error) {
	return nil, nil
}

func (s *stubTripStore) ClearNewItemsFlag(string) error {
	return nil
}

func (s *stubTripStore) Delete(string) error {
	return nil
}

func (s *stubTripStore) SetPassengerDroppedOff(string, int, bool) error {
	return nil
}

func (s *stubTripStore) UpdateStatus(id string, status string) error {
	s.statusWrites++
	if trip, ok := s.trips[id]; ok {
		trip.Status = status
	}
	return nil
}

func (s *stubTripStore) UpdatePosition(id string, location models.TripLocation, status string) error {
	s.positionWrites++
	if trip, ok := s.trips[id]; ok {
		trip.CurrentLocation = &location
		trip.Status = status
	}
	return nil
}

func (s *stubTripStore) SetParcelDelivered(id string, index int, delivered bool) error {
	s.parcelWrites++
	if trip, ok := s.trips[id]; ok && index < len(trip.Parcels) {
		trip.Parcels[index].Delivered = delivered
	}
	return nil
}

func (s *stubTripStore) AppendItems(id string, parcels []models.Parcel, passengers []models.Passenger, request models.ExtraRequest) error {
	return nil
}

// authAs fakes the claims the auth middleware would set from a JWT.
func authAs(userID, role, company string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
		c.Set("company", company)
		c.Next()
	}
}

func newTripTestRouter(store *stubTripStore, userID, role, company string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	handler := NewTripHandler(services.NewTripService(store), nil)

	router := gin.New()
	router.Use(authAs(userID, role, company))
	router.PATCH("/trips/:id/status", handler.UpdateStatus)
	router.PATCH("/trips/:id/parcels/:index", handler.ToggleParcel)
	router.POST("/trips/:id/position", middleware.RequireRole(models.RoleDriver), handler.UpdatePosition)
	return router
}

func companyTrip(company string) *models.Trip {
	return &models.Trip{
		ID:          primitive.NewObjectID(),
		Departure:   "Paris",
		Destination: "Lyon",
		Status:      models.TripInProgress,
		Company:     company,
		Parcels:     []models.Parcel{{Description: "Box", RecipientName: "R"}},
	}
}

func TestUpdateStatusRejectsOtherCompany(t *testing.T) {
	trip := companyTrip("Transports Nord")
	store := newStubTripStore(trip)
	router := newTripTestRouter(store, "user1", models.RoleEmployee, "Sud Express")

	req := httptest.NewRequest(http.MethodPatch, "/trips/"+trip.ID.Hex()+"/status", strings.NewReader(`{"status":"COMPLETED"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 0, store.statusWrites)
	assert.Equal(t, models.TripInProgress, trip.Status)
}

func TestUpdateStatusAllowsSameCompany(t *testing.T) {
	trip := companyTrip("Transports Nord")
	store := newStubTripStore(trip)
	router := newTripTestRouter(store, "user1", models.RoleEmployee, "Transports Nord")

	req := httptest.NewRequest(http.MethodPatch, "/trips/"+trip.ID.Hex()+"/status", strings.NewReader(`{"status":"COMPLETED"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, store.statusWrites)
	assert.Equal(t, models.TripCompleted, trip.Status)
}

func TestUpdateStatusAllowsSuperAdminAcrossCompanies(t *testing.T) {
	trip := companyTrip("Transports Nord")
	store := newStubTripStore(trip)
	router := newTripTestRouter(store, "root", models.RoleSuperAdmin, models.SystemCompany)

	req := httptest.NewRequest(http.MethodPatch, "/trips/"+trip.ID.Hex()+"/status", strings.NewReader(`{"status":"PENDING"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, store.statusWrites)
}

func TestToggleParcelRejectsOtherCompany(t *testing.T) {
	trip := companyTrip("Transports Nord")
	store := newStubTripStore(trip)
	router := newTripTestRouter(store, "user1", models.RoleDriver, "Sud Express")

	req := httptest.NewRequest(http.MethodPatch, "/trips/"+trip.ID.Hex()+"/parcels/0", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 0, store.parcelWrites)
	assert.False(t, trip.Parcels[0].Delivered)
}

func TestUpdatePositionRequiresDriverRole(t *testing.T) {
	trip := companyTrip("Transports Nord")
	store := newStubTripStore(trip)
	router := newTripTestRouter(store, "user1", models.RoleEmployee, "Transports Nord")

	req := httptest.NewRequest(http.MethodPost, "/trips/"+trip.ID.Hex()+"/position", strings.NewReader(`{"lat":45.76,"lng":4.83,"city":"Lyon","status":"IN_PROGRESS"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 0, store.positionWrites)
}

func TestUpdatePositionAllowsDriverOfSameCompany(t *testing.T) {
	trip := companyTrip("Transports Nord")
	store := newStubTripStore(trip)
	router := newTripTestRouter(store, "driver1", models.RoleDriver, "Transports Nord")

	req := httptest.NewRequest(http.MethodPost, "/trips/"+trip.ID.Hex()+"/position", strings.NewReader(`{"lat":45.76,"lng":4.83,"city":"Lyon","status":"IN_PROGRESS"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, store.positionWrites)
	require.NotNil(t, trip.CurrentLocation)
	assert.Equal(t, "Lyon", trip.CurrentLocation.City)
}

func TestUpdatePositionRejectsDriverOfOtherCompany(t *testing.T) {
	trip := companyTrip("Transports Nord")
	store := newStubTripStore(trip)
	router := newTripTestRouter(store, "driver2", models.RoleDriver, "Sud Express")

	req := httptest.NewRequest(http.MethodPost, "/trips/"+trip.ID.Hex()+"/position", strings.NewReader(`{"lat":45.76,"lng":4.83,"city":"Lyon","status":"IN_PROGRESS"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 0, store.positionWrites)
}
