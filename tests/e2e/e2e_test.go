package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rentaldesk/internal/database"
	"rentaldesk/internal/middleware"
	"rentaldesk/internal/modules/auth"
	"rentaldesk/internal/modules/booking"
	"rentaldesk/internal/modules/customer"
	"rentaldesk/internal/modules/equipment"
	"rentaldesk/internal/modules/notification"
	"rentaldesk/internal/modules/rental"
	jwtsvc "rentaldesk/internal/pkg/jwt"
	"rentaldesk/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type E2ETestSuite struct {
	router *gin.Engine
	db     *gorm.DB
	token  string
}

type TestResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *ErrorDetail           `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	t.Helper()

	dsn := fmt.Sprintf("file:e2e_%s?mode=memory&cache=shared", t.Name())
	db, err := database.Connect(dsn)
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, database.Migrate(db), "Failed to migrate test database")

	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)
	rentalRepo := repository.NewRentalRepository(db)

	jwtService := jwtsvc.New("test_secret_key_32_characters_min", 24*time.Hour)

	hub := notification.NewHub()
	t.Cleanup(hub.Close)
	notifService := notification.NewService(db, hub)
	notifHandler := notification.NewHandler(notifService, hub, jwtService)

	authService := auth.NewService(userRepo, jwtService)
	authHandler := auth.NewHandler(authService)

	customerHandler := customer.NewHandler(customer.NewService(customerRepo))
	equipmentHandler := equipment.NewHandler(equipment.NewService(equipmentRepo))
	synchronizer := equipment.NewSynchronizer()

	bookingService := booking.NewService(db, synchronizer, notifService, 0)
	bookingHandler := booking.NewHandler(bookingService)

	rentalService := rental.NewService(db, rentalRepo, bookingService, bookingService, synchronizer, notifService)
	rentalHandler := rental.NewHandler(rentalService)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")
	authHandler.RegisterRoutes(v1)

	protected := v1.Group("/")
	protected.Use(middleware.JWTAuth(jwtService))
	{
		authHandler.RegisterProtectedRoutes(protected)
		customerHandler.RegisterRoutes(protected)
		equipmentHandler.RegisterRoutes(protected)
		rentalHandler.RegisterRoutes(protected)
		bookingHandler.RegisterRoutes(protected)
		notifHandler.RegisterRoutes(protected)
	}

	suite := &E2ETestSuite{router: r, db: db}
	suite.registerAndLogin(t)
	return suite
}

func (s *E2ETestSuite) registerAndLogin(t *testing.T) {
	t.Helper()

	resp := s.request(t, http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"name":     "Ops Manager",
		"email":    "ops@rentaldesk.io",
		"password": "secret123",
		"role":     "manager",
	}, http.StatusCreated)
	require.True(t, resp.Success)

	resp = s.request(t, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"email":    "ops@rentaldesk.io",
		"password": "secret123",
	}, http.StatusOK)
	require.True(t, resp.Success)

	token, ok := resp.Data["token"].(string)
	require.True(t, ok, "login response must carry a token")
	s.token = token
}

func (s *E2ETestSuite) request(t *testing.T, method, path string, body interface{}, wantStatus int) *TestResponse {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, wantStatus, w.Code, "unexpected status for %s %s: %s", method, path, w.Body.String())

	var resp TestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return &resp
}

func (s *E2ETestSuite) createCustomer(t *testing.T) int64 {
	t.Helper()
	resp := s.request(t, http.MethodPost, "/api/v1/customers", map[string]interface{}{
		"name":         "KazBuild LLP",
		"company_name": "KazBuild LLP",
		"email":        "ops@kazbuild.kz",
	}, http.StatusCreated)
	return idFrom(t, resp.Data, "customer")
}

func (s *E2ETestSuite) createEquipment(t *testing.T, name string, dailyRate float64) int64 {
	t.Helper()
	resp := s.request(t, http.MethodPost, "/api/v1/equipment", map[string]interface{}{
		"name":       name,
		"category":   "earthmoving",
		"daily_rate": dailyRate,
	}, http.StatusCreated)
	return idFrom(t, resp.Data, "equipment")
}

func idFrom(t *testing.T, data map[string]interface{}, key string) int64 {
	t.Helper()
	obj, ok := data[key].(map[string]interface{})
	require.True(t, ok, "response missing %q object", key)
	id, ok := obj["id"].(float64)
	require.True(t, ok, "%q object missing id", key)
	return int64(id)
}

func TestAuthRequired(t *testing.T) {
	s := setupTestSuite(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rentals", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRentalLifecycleOverHTTP(t *testing.T) {
	s := setupTestSuite(t)

	customerID := s.createCustomer(t)
	equipmentID := s.createEquipment(t, "CAT 320 Excavator", 95000)

	resp := s.request(t, http.MethodPost, "/api/v1/rentals", map[string]interface{}{
		"customer_id": customerID,
		"start_date":  "2026-10-01",
		"end_date":    "2026-10-08",
		"notes":       "phase 1",
		"items": []map[string]interface{}{
			{"equipment_id": equipmentID},
		},
	}, http.StatusCreated)

	rentalObj := resp.Data["rental"].(map[string]interface{})
	rentalID := int64(rentalObj["id"].(float64))
	assert.Equal(t, "pending", rentalObj["status"])
	assert.Len(t, rentalObj["items"], 1)

	for _, target := range []string{"quotation", "quotation_approved", "mobilization", "active", "completed"} {
		resp := s.request(t, http.MethodPost, fmt.Sprintf("/api/v1/rentals/%d/transition", rentalID), map[string]interface{}{
			"target_status": target,
		}, http.StatusOK)
		got := resp.Data["rental"].(map[string]interface{})
		assert.Equal(t, target, got["status"])
	}

	resp = s.request(t, http.MethodGet, fmt.Sprintf("/api/v1/rentals/%d", rentalID), nil, http.StatusOK)
	final := resp.Data["rental"].(map[string]interface{})
	assert.Equal(t, "completed", final["status"])
	assert.NotNil(t, final["completed_by"])
	assert.NotNil(t, final["actual_end_date"])

	// The lifecycle produced persisted notifications.
	resp = s.request(t, http.MethodGet, "/api/v1/notifications", nil, http.StatusOK)
	notifications := resp.Data["notifications"].([]interface{})
	assert.NotEmpty(t, notifications)
}

func TestIllegalTransitionReturns409(t *testing.T) {
	s := setupTestSuite(t)

	customerID := s.createCustomer(t)
	resp := s.request(t, http.MethodPost, "/api/v1/rentals", map[string]interface{}{
		"customer_id": customerID,
		"start_date":  "2026-10-01",
		"end_date":    "2026-10-08",
	}, http.StatusCreated)
	rentalID := int64(resp.Data["rental"].(map[string]interface{})["id"].(float64))

	resp = s.request(t, http.MethodPost, fmt.Sprintf("/api/v1/rentals/%d/transition", rentalID), map[string]interface{}{
		"target_status": "active",
	}, http.StatusConflict)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_TRANSITION", resp.Error.Code)

	details := resp.Error.Details.(map[string]interface{})
	assert.Equal(t, "pending", details["current_status"])
	assert.ElementsMatch(t, []interface{}{"quotation", "cancelled"}, details["allowed_targets"])
}

func TestBookingConflictReturns409(t *testing.T) {
	s := setupTestSuite(t)

	customerID := s.createCustomer(t)
	equipmentID := s.createEquipment(t, "Liebherr LTM 1050 Crane", 250000)

	s.request(t, http.MethodPost, "/api/v1/rentals", map[string]interface{}{
		"customer_id": customerID,
		"start_date":  "2026-10-01",
		"end_date":    "2026-10-10",
		"items":       []map[string]interface{}{{"equipment_id": equipmentID}},
	}, http.StatusCreated)

	resp := s.request(t, http.MethodPost, "/api/v1/rentals", map[string]interface{}{
		"customer_id": customerID,
		"start_date":  "2026-10-05",
		"end_date":    "2026-10-15",
		"items":       []map[string]interface{}{{"equipment_id": equipmentID}},
	}, http.StatusConflict)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "BOOKING_CONFLICT", resp.Error.Code)

	details := resp.Error.Details.(map[string]interface{})
	assert.Equal(t, float64(equipmentID), details["equipment_id"])
	assert.Equal(t, "2026-10-01", details["conflict_start"])
	assert.Equal(t, "2026-10-10", details["conflict_end"])
}

func TestAvailabilityEndpoint(t *testing.T) {
	s := setupTestSuite(t)

	customerID := s.createCustomer(t)
	equipmentID := s.createEquipment(t, "Atlas Copco XAS 88 Compressor", 18000)

	path := fmt.Sprintf("/api/v1/equipment/%d/availability?start=2026-10-01&end=2026-10-10", equipmentID)
	resp := s.request(t, http.MethodGet, path, nil, http.StatusOK)
	assert.Equal(t, true, resp.Data["available"])

	s.request(t, http.MethodPost, "/api/v1/rentals", map[string]interface{}{
		"customer_id": customerID,
		"start_date":  "2026-10-01",
		"end_date":    "2026-10-10",
		"items":       []map[string]interface{}{{"equipment_id": equipmentID}},
	}, http.StatusCreated)

	resp = s.request(t, http.MethodGet, path, nil, http.StatusOK)
	assert.Equal(t, false, resp.Data["available"])

	// Touching range remains available.
	touching := fmt.Sprintf("/api/v1/equipment/%d/availability?start=2026-10-10&end=2026-10-20", equipmentID)
	resp = s.request(t, http.MethodGet, touching, nil, http.StatusOK)
	assert.Equal(t, true, resp.Data["available"])
}

func TestManualEquipmentStatusGuard(t *testing.T) {
	s := setupTestSuite(t)

	equipmentID := s.createEquipment(t, "Wacker Neuson Plate Compactor", 8000)

	// Operator statuses are accepted.
	resp := s.request(t, http.MethodPatch, fmt.Sprintf("/api/v1/equipment/%d/status", equipmentID), map[string]interface{}{
		"status": "under_maintenance",
	}, http.StatusOK)
	equip := resp.Data["equipment"].(map[string]interface{})
	assert.Equal(t, "under_maintenance", equip["status"])

	// The lifecycle-managed status is rejected.
	resp = s.request(t, http.MethodPatch, fmt.Sprintf("/api/v1/equipment/%d/status", equipmentID), map[string]interface{}{
		"status": "rented",
	}, http.StatusBadRequest)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}
