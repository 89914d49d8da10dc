package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"parkingfee/parking"
	"parkingfee/rates"
)

type testServer struct {
	store  *rates.SQLiteStore
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := rates.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "parking.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	log := zap.NewNop()
	checks := map[string]HealthCheck{"store": store.Ping}
	return &testServer{store: store, router: NewRouter(New(store, log), log, checks)}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestFee(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body gin.H
		want FeeResponse
	}{
		{
			name: "default category and daytime",
			body: gin.H{"minutes": 300},
			want: FeeResponse{
				Category: "weekday", Source: rates.SourceDefault,
				Quote: parking.Quote{Minutes: 300, Regime: parking.Day, Base: 2500, Amount: 1500, Capped: true},
			},
		},
		{
			name: "below the cap floor",
			body: gin.H{"minutes": 299, "start": "10:00"},
			want: FeeResponse{
				Category: "weekday", Source: rates.SourceDefault, Start: "10:00",
				Quote: parking.Quote{Minutes: 299, Regime: parking.Day, Base: 2500, Amount: 2500},
			},
		},
		{
			name: "night start",
			body: gin.H{"minutes": 100, "start": "18:01"},
			want: FeeResponse{
				Category: "weekday", Source: rates.SourceDefault, Start: "18:01",
				Quote: parking.Quote{Minutes: 100, Regime: parking.Night, Base: 600, Amount: 600},
			},
		},
		{
			name: "holiday short stay is not capped",
			body: gin.H{"minutes": 100, "category": "holiday", "start": "9:30"},
			want: FeeResponse{
				Category: "holiday", Source: rates.SourceDefault, Start: "09:30",
				Quote: parking.Quote{Minutes: 100, Regime: parking.Day, Base: 2000, Amount: 2000},
			},
		},
		{
			name: "zero minutes",
			body: gin.H{"minutes": 0, "start": "03:00"},
			want: FeeResponse{
				Category: "weekday", Source: rates.SourceDefault, Start: "03:00",
				Quote: parking.Quote{Regime: parking.Night},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/fee", tt.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, tt.want, decode[FeeResponse](t, w))
		})
	}
}

func TestFee_Errors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		body     gin.H
		wantCode int
		wantErr  string
	}{
		{"missing minutes", gin.H{"start": "10:00"}, http.StatusBadRequest, "Minutes"},
		{"negative minutes", gin.H{"minutes": -1}, http.StatusBadRequest, "invalid duration"},
		{"hour out of range", gin.H{"minutes": 60, "start": "24:00"}, http.StatusBadRequest, "invalid time of day"},
		{"malformed start", gin.H{"minutes": 60, "start": "noon"}, http.StatusBadRequest, "invalid time of day"},
		{"unknown category", gin.H{"minutes": 60, "category": "monthly"}, http.StatusNotFound, "rate profile not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/fee", tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, decode[map[string]string](t, w)["error"], tt.wantErr)
		})
	}
}

func TestSplitFee(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/fee/split", gin.H{"weekday_minutes": 720, "holiday_minutes": 900})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, SplitFeeResponse{WeekdayFee: 1500, HolidayFee: 1500, Total: 3000}, decode[SplitFeeResponse](t, w))

	w = s.do(t, http.MethodPost, "/api/v1/fee/split", gin.H{"weekday_minutes": 0, "holiday_minutes": 100})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, SplitFeeResponse{HolidayFee: 2000, Total: 2000}, decode[SplitFeeResponse](t, w))

	w = s.do(t, http.MethodPost, "/api/v1/fee/split", gin.H{"weekday_minutes": -10, "holiday_minutes": 100})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/fee/split", gin.H{"weekday_minutes": 10, "holiday_category": "monthly"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRates(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/rates/holiday", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, RateResponse{Category: "holiday", Source: rates.SourceDefault, Profile: parking.DefaultHolidayProfile()},
		decode[RateResponse](t, w))

	w = s.do(t, http.MethodGet, "/api/v1/rates/event-day", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	eventDay := parking.Profile{
		UnitMinutes: 20, UnitPrice: 400, CapMinutes: 240, CapFee: 2000,
		NightUnitMinutes: 60, NightUnitPrice: 300,
	}
	w = s.do(t, http.MethodPut, "/api/v1/rates/event-day", eventDay)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/rates/event-day", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, RateResponse{Category: "event-day", Source: rates.SourceStored, Profile: eventDay},
		decode[RateResponse](t, w))

	// 100 minutes is 5 units of 400, above the cap fee but under both thresholds.
	w = s.do(t, http.MethodPost, "/api/v1/fee", gin.H{"minutes": 100, "category": "event-day"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2000, decode[FeeResponse](t, w).Amount)

	w = s.do(t, http.MethodPost, "/api/v1/fee", gin.H{"minutes": 240, "category": "event-day"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2000, decode[FeeResponse](t, w).Amount)

	// The night regime has no cap.
	w = s.do(t, http.MethodPost, "/api/v1/fee", gin.H{"minutes": 1440, "category": "event-day", "start": "23:00"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 24*300, decode[FeeResponse](t, w).Amount)

	w = s.do(t, http.MethodPost, "/api/v1/fee", gin.H{"minutes": math.MaxInt, "category": "event-day", "start": "23:00"})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/rates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"categories":["event-day"],"presets":["weekday","holiday"]}`, w.Body.String())
}

func TestPutRate_OverridesPreset(t *testing.T) {
	s := newTestServer(t)

	cheaper := parking.DefaultWeekdayProfile()
	cheaper.UnitPrice = 400
	w := s.do(t, http.MethodPut, "/api/v1/rates/weekday", cheaper)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/fee", gin.H{"minutes": 120})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[FeeResponse](t, w)
	assert.Equal(t, rates.SourceStored, resp.Source)
	assert.Equal(t, 800, resp.Amount)
}

func TestPutRate_Invalid(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{"zero unit minutes", gin.H{"unit_minutes": 0, "unit_price": 500, "night_unit_minutes": 60}},
		{"negative cap fee", gin.H{"unit_minutes": 60, "cap_fee": -1, "night_unit_minutes": 60}},
		{"missing night unit", gin.H{"unit_minutes": 60, "unit_price": 500}},
		{"not json", "weekday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPut, "/api/v1/rates/weekday", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	ok, err := s.store.Exists(context.Background(), "weekday")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreFailure(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.store.Close())

	w := s.do(t, http.MethodGet, "/api/v1/rates", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())

	// Pricing still works from the presets.
	w = s.do(t, http.MethodPost, "/api/v1/fee", gin.H{"minutes": 720, "category": "holiday"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1500, decode[FeeResponse](t, w).Amount)

	w = s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK","checks":{"store":"healthy"}}`, w.Body.String())

	log := zap.NewNop()
	router := NewRouter(New(s.store, log), log, map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}
