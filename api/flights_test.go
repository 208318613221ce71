package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nelonissle/kubernetes-bookingsystem/internal/domain"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/seatclient"
)

// MockFlightUseCase is a mock implementation of flights.FlightUseCase
type MockFlightUseCase struct {
	mock.Mock
}

func (m *MockFlightUseCase) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) GetByFlightReference(ctx context.Context, flightRef string) (*domain.Flight, error) {
	args := m.Called(ctx, flightRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) DecrementSeats(ctx context.Context, flightRef string, count int, idempotencyKey string) (*domain.Flight, error) {
	args := m.Called(ctx, flightRef, count, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) CreateFlight(ctx context.Context, flight domain.Flight) (*domain.Flight, error) {
	args := m.Called(ctx, flight)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func newFlightRouter(svc *MockFlightUseCase, admin ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewFlightHandler(svc).Register(r.Group("/flight"), admin...)
	return r
}

func serve(r http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFlightHandler_list(t *testing.T) {
	mockService := &MockFlightUseCase{}
	mockService.On("List", mock.Anything).Return([]domain.Flight{{FlightReference: "FL123", AvailableSeats: 100}}, nil)

	w := serve(newFlightRouter(mockService), http.MethodGet, "/flight", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var flights []domain.Flight
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &flights))
	assert.Equal(t, "FL123", flights[0].FlightReference)
}

func TestFlightHandler_get(t *testing.T) {
	mockService := &MockFlightUseCase{}
	mockService.On("GetByFlightReference", mock.Anything, "FL123").Return(&domain.Flight{FlightReference: "FL123", AvailableSeats: 100}, nil)
	mockService.On("GetByFlightReference", mock.Anything, "FL404").Return(nil, domain.ErrFlightNotFound)
	r := newFlightRouter(mockService)

	w := serve(r, http.MethodGet, "/flight/FL123", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Available_Seats":100`)

	w = serve(r, http.MethodGet, "/flight/FL404", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFlightHandler_updateSeats(t *testing.T) {
	mockService := &MockFlightUseCase{}
	mockService.On("DecrementSeats", mock.Anything, "FL123", 2, "booking-1").Return(&domain.Flight{FlightReference: "FL123", AvailableSeats: 98}, nil)
	mockService.On("DecrementSeats", mock.Anything, "FL123", 99, "").Return(nil, domain.ErrInsufficientSeats)
	mockService.On("DecrementSeats", mock.Anything, "FL404", 1, "").Return(nil, domain.ErrFlightNotFound)
	r := newFlightRouter(mockService)

	w := serve(r, http.MethodPut, "/flight/updateSeats/FL123", "2", map[string]string{seatclient.IdempotencyKeyHeader: "booking-1"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Available_Seats":98`)

	w = serve(r, http.MethodPut, "/flight/updateSeats/FL123", "99", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(r, http.MethodPut, "/flight/updateSeats/FL404", "1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(r, http.MethodPut, "/flight/updateSeats/FL123", `"two"`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockService.AssertNumberOfCalls(t, "DecrementSeats", 3)
}

func TestFlightHandler_create(t *testing.T) {
	mockService := &MockFlightUseCase{}
	departure := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	input := domain.Flight{
		FlightReference: "FL500",
		AirlineName:     "Swiss",
		Source:          "ZRH",
		Destination:     "JFK",
		DepartureTime:   departure,
		ArrivalTime:     departure.Add(9 * time.Hour),
		AvailableSeats:  180,
	}
	created := input
	created.ID = "65f0"
	mockService.On("CreateFlight", mock.Anything, input).Return(&created, nil)

	body, _ := json.Marshal(input)
	w := serve(newFlightRouter(mockService), http.MethodPost, "/flight/create", string(body), nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"Id":"65f0"`)
}

func TestFlightHandler_create_RequiresAdmin(t *testing.T) {
	mockService := &MockFlightUseCase{}
	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusForbidden) }

	w := serve(newFlightRouter(mockService, deny), http.MethodPost, "/flight/create", `{}`, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockService.AssertNotCalled(t, "CreateFlight", mock.Anything, mock.Anything)
}

func TestFlightHandler_create_Invalid(t *testing.T) {
	mockService := &MockFlightUseCase{}
	mockService.On("CreateFlight", mock.Anything, mock.Anything).Return(nil, domain.ErrValidation)

	w := serve(newFlightRouter(mockService), http.MethodPost, "/flight/create", `{"FlightId":"FL1"}`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
