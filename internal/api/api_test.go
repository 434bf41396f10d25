package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"autoease/internal/availability"
	"autoease/internal/catalog"
	"autoease/internal/common/config"
	"autoease/internal/common/errors"
	"autoease/internal/common/logger"
	"autoease/internal/models"
	"autoease/internal/oracle"
	"autoease/internal/ranking"
	"autoease/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishBookingConfirmed(ctx context.Context, sessionID string, booking models.BookingRecord) error {
	args := m.Called(ctx, sessionID, booking)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	return nil
}

type failingRanker struct{}

func (failingRanker) Rank(context.Context, models.CarType, models.Service, *catalog.Catalog) ([]models.RankedStation, error) {
	return nil, errors.NewOracleFailureError(assert.AnError)
}

// ==========================
// Test Helper Functions
// ==========================

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router    *gin.Engine
	publisher *MockPublisher
}

func newTestServer(t *testing.T, ranker session.Ranker, serverCfg config.ServerConfig) *testServer {
	log := logger.NewTestLogger(t)
	holder := catalog.NewHolder(catalog.SampleCatalog())
	if ranker == nil {
		ranker = ranking.NewEngine(ranking.NewHeuristicScorer(), log)
	}
	slots := availability.NewGenerator(availability.DefaultSchedule(), 3, availability.MaxLoadCap, log)
	store := session.NewStore(holder, ranker, slots, session.Options{CallTimeout: time.Second}, time.Hour, log)

	pub := new(MockPublisher)
	h := NewSessionHandler(store, holder, oracle.NewKeywordRecommender(), pub, log)
	return &testServer{
		router:    NewRouter(serverCfg, h, nil, log),
		publisher: pub,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func (ts *testServer) createSession(t *testing.T) string {
	t.Helper()
	w, body := ts.do(t, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "idle", body["state"])
	return body["id"].(string)
}

// ==========================
// Booking Flow Tests
// ==========================

func TestAPI_FullBookingFlow(t *testing.T) {
	ts := newTestServer(t, nil, config.ServerConfig{})
	id := ts.createSession(t)
	base := "/api/sessions/" + id

	w, body := ts.do(t, http.MethodPut, base+"/selection", gin.H{"carType": "SUV", "service": "Oil Change"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SUV", body["carType"])

	w, body = ts.do(t, http.MethodPost, base+"/rank", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ranked", body["state"])
	ranked := body["rankedStations"].([]interface{})
	require.Len(t, ranked, 2)
	assert.Equal(t, "station-2", ranked[0].(map[string]interface{})["id"])

	w, body = ts.do(t, http.MethodPost, base+"/station", gin.H{"stationId": "station-2"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "slots_ready", body["state"])
	slots := body["timeSlots"].([]interface{})
	require.NotEmpty(t, slots)

	w, _ = ts.do(t, http.MethodPost, base+"/slot", gin.H{"timeSlot": slots[0]})
	require.Equal(t, http.StatusOK, w.Code)

	ts.publisher.On("PublishBookingConfirmed", mock.Anything, id, mock.AnythingOfType("models.BookingRecord")).Return(nil)
	w, body = ts.do(t, http.MethodPost, base+"/confirm", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["eventPublished"])
	assert.Contains(t, body["summary"], "QuickFix Garage")
	ts.publisher.AssertExpectations(t)

	w, body = ts.do(t, http.MethodPost, base+"/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ranked", body["state"])
}

func TestAPI_ConfirmSurvivesPublishFailure(t *testing.T) {
	ts := newTestServer(t, nil, config.ServerConfig{})
	id := ts.createSession(t)
	base := "/api/sessions/" + id

	ts.do(t, http.MethodPut, base+"/selection", gin.H{"carType": "Truck", "service": "Engine Diagnostics"})
	ts.do(t, http.MethodPost, base+"/rank", nil)
	_, body := ts.do(t, http.MethodPost, base+"/station", gin.H{"stationId": "station-3"})
	slot := body["timeSlots"].([]interface{})[0]
	ts.do(t, http.MethodPost, base+"/slot", gin.H{"timeSlot": slot})

	ts.publisher.On("PublishBookingConfirmed", mock.Anything, id, mock.Anything).
		Return(errors.NewEventPublishFailedError("bookings", assert.AnError))
	w, body := ts.do(t, http.MethodPost, base+"/confirm", nil)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, false, body["eventPublished"])
}

func TestAPI_ConfirmIncomplete(t *testing.T) {
	ts := newTestServer(t, nil, config.ServerConfig{})
	id := ts.createSession(t)

	w, body := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/confirm", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INCOMPLETE_BOOKING", body["code"])
	sess := body["session"].(map[string]interface{})
	assert.Equal(t, "idle", sess["state"])
	assert.Equal(t, "Missing information for booking. Please select station, time slot, service, and car type.", sess["error"])
	ts.publisher.AssertNotCalled(t, "PublishBookingConfirmed", mock.Anything, mock.Anything, mock.Anything)
}

func TestAPI_RankWithoutSelection(t *testing.T) {
	ts := newTestServer(t, nil, config.ServerConfig{})
	id := ts.createSession(t)

	w, body := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/rank", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_SELECTION", body["code"])
	assert.Equal(t, "Please select both car type and service.", body["session"].(map[string]interface{})["error"])
}

func TestAPI_RankFailureThenClearError(t *testing.T) {
	ts := newTestServer(t, failingRanker{}, config.ServerConfig{})
	id := ts.createSession(t)
	base := "/api/sessions/" + id

	ts.do(t, http.MethodPut, base+"/selection", gin.H{"carType": "Sedan", "service": "Oil Change"})
	w, body := ts.do(t, http.MethodPost, base+"/rank", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	sess := body["session"].(map[string]interface{})
	assert.Equal(t, "error", sess["state"])
	assert.Equal(t, session.MsgRankingFailed, sess["error"])

	w, body = ts.do(t, http.MethodDelete, base+"/error", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "idle", body["state"])
	assert.Nil(t, body["error"])
}

func TestAPI_ErrorMapping(t *testing.T) {
	ts := newTestServer(t, nil, config.ServerConfig{})
	id := ts.createSession(t)
	base := "/api/sessions/" + id

	tests := []struct {
		name         string
		method       string
		path         string
		body         interface{}
		expectedCode int
	}{
		{"unknown session", http.MethodGet, "/api/sessions/nope", nil, http.StatusNotFound},
		{"unknown car type", http.MethodPut, base + "/selection", gin.H{"carType": "Boat"}, http.StatusBadRequest},
		{"station before ranking", http.MethodPost, base + "/station", gin.H{"stationId": "station-1"}, http.StatusConflict},
		{"missing station id", http.MethodPost, base + "/station", gin.H{}, http.StatusBadRequest},
		{"slot before station", http.MethodPost, base + "/slot", gin.H{"timeSlot": "09:00 AM"}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := ts.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestAPI_DeleteSession(t *testing.T) {
	ts := newTestServer(t, nil, config.ServerConfig{})
	id := ts.createSession(t)

	w, _ := ts.do(t, http.MethodDelete, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = ts.do(t, http.MethodGet, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ==========================
// Catalog and Recommendation Tests
// ==========================

func TestAPI_ListStations(t *testing.T) {
	ts := newTestServer(t, nil, config.ServerConfig{})

	w, body := ts.do(t, http.MethodGet, "/api/stations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["stations"], 5)

	w, body = ts.do(t, http.MethodGet, "/api/stations?carType=Motorcycle&service=Air%20Conditioning%20Repair", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["stations"], 1)

	w, _ = ts.do(t, http.MethodGet, "/api/stations?carType=SUV", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAPI_Recommend(t *testing.T) {
	ts := newTestServer(t, nil, config.ServerConfig{})

	w, body := ts.do(t, http.MethodPost, "/api/recommendations", gin.H{
		"carType":          "Sedan",
		"issueDescription": "Brakes are squeaking and the battery light is on",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"Brake Inspection", "Battery Replacement"}, body["recommendedServices"])

	w, _ = ts.do(t, http.MethodPost, "/api/recommendations", gin.H{"carType": "Sedan"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ==========================
// Middleware Tests
// ==========================

func TestAPI_RateLimit(t *testing.T) {
	ts := newTestServer(t, nil, config.ServerConfig{RateLimit: 1, RateBurst: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w, _ := ts.do(t, http.MethodGet, "/api/stations", nil)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	w, _ := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code, "health is not rate limited")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(errors.NewOracleTimeoutError(time.Second)))
	assert.Equal(t, http.StatusConflict, statusFor(session.ErrSuperseded))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}

func TestRateLimiterStore_DropsIdleClients(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	store := newRateLimiterStore(60, 5)
	store.now = func() time.Time { return now }
	store.lastSweep = now

	first := store.getLimiter("10.0.0.1")
	store.getLimiter("10.0.0.2")
	assert.Equal(t, 2, store.size())

	now = now.Add(5 * time.Minute)
	assert.Same(t, first, store.getLimiter("10.0.0.1"), "active clients keep their limiter")

	now = now.Add(limiterIdleTTL + time.Second)
	store.getLimiter("10.0.0.3")
	assert.Equal(t, 1, store.size(), "clients idle past the TTL are dropped")
	assert.NotSame(t, first, store.getLimiter("10.0.0.1"))
}
