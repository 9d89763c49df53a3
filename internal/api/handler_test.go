package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"station-billing-backend/internal/db"
	"station-billing-backend/internal/model"
	"station-billing-backend/internal/session"
	"station-billing-backend/internal/store"
)

// nopNotifier satisfies the engine's notifier contract for handler tests.
type nopNotifier struct{}

func (nopNotifier) SessionStarted(stationID int64, stationName string) {}
func (nopNotifier) SessionExpired(stationID int64, stationName string) {}

func newTestRouter(t *testing.T, seed int) (*gin.Engine, store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	s := store.NewGormStore(gormDB)
	manager, err := session.NewManager(context.Background(), s, nopNotifier{}, session.Options{
		DefaultHourlyRate: "50",
		TickInterval:      time.Second,
		SeedStations:      seed,
	})
	require.NoError(t, err)
	t.Cleanup(manager.Close)

	router := NewRouter(s, manager, &webpush.Options{VAPIDPublicKey: "test-public-key"}, RouterConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTL:        time.Minute,
	})
	return router, s
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListStations(t *testing.T) {
	router, _ := newTestRouter(t, 2)

	w := doJSON(t, router, http.MethodGet, "/api/stations", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var statuses []session.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &statuses))
	require.Len(t, statuses, 2)
	assert.Equal(t, "Station 1", statuses[0].StationName)
	assert.False(t, statuses[0].Active)
	assert.Equal(t, "50", statuses[0].HourlyRate)
}

func TestAddAndRenameStation(t *testing.T) {
	router, _ := newTestRouter(t, 2)

	w := doJSON(t, router, http.MethodPost, "/api/stations", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var status session.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "Station 3", status.StationName)

	w = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/stations/%d/name", status.StationID),
		map[string]string{"name": "Racing Rig"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/stations/%d/name", status.StationID),
		map[string]string{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPut, "/api/stations/999/name",
		map[string]string{"name": "Ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionLifecycle(t *testing.T) {
	router, s := newTestRouter(t, 1)

	w := doJSON(t, router, http.MethodPut, "/api/stations/1/settings",
		map[string]any{"hourly_rate": "60", "customer_name": "Alice"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/stations/1/start", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var status session.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.Active)

	// Starting twice conflicts.
	w = doJSON(t, router, http.MethodPost, "/api/stations/1/start", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Settings sent mid-session do not stick.
	w = doJSON(t, router, http.MethodPut, "/api/stations/1/settings",
		map[string]any{"hourly_rate": "999"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "60", status.HourlyRate)

	w = doJSON(t, router, http.MethodPost, "/api/stations/1/stop", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stopResp struct {
		Record model.SessionRecord `json:"record"`
		Status session.Status      `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stopResp))
	assert.Equal(t, 60.0, stopResp.Record.HourlyRate)
	assert.False(t, stopResp.Status.Active)
	assert.Empty(t, stopResp.Status.CustomerName)

	records, err := s.ListRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	// Stopping an idle station conflicts.
	w = doJSON(t, router, http.MethodPost, "/api/stations/1/stop", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStartValidationOverHTTP(t *testing.T) {
	router, _ := newTestRouter(t, 1)

	w := doJSON(t, router, http.MethodPut, "/api/stations/1/settings",
		map[string]any{"hourly_rate": ""})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/stations/1/start", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/stations/99/start", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLedgerEndpoints(t *testing.T) {
	router, s := newTestRouter(t, 1)
	ctx := context.Background()

	now := time.Now().UTC()
	costs := []float64{10.00, 20.50, 5.25}
	var ids []int64
	for i, cost := range costs {
		rec := model.SessionRecord{
			StationID:       1,
			StationName:     "Station 1",
			StartedAt:       now.Add(time.Duration(i-3) * time.Hour),
			EndedAt:         now.Add(time.Duration(i-2) * time.Hour),
			DurationSeconds: 3600,
			HourlyRate:      cost,
			TotalCost:       cost,
		}
		require.NoError(t, s.AppendRecord(ctx, &rec))
		ids = append(ids, rec.ID)
	}

	w := doJSON(t, router, http.MethodGet, "/api/ledger", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var records []model.SessionRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 3)
	assert.Equal(t, 5.25, records[0].TotalCost) // newest first

	w = doJSON(t, router, http.MethodGet, "/api/ledger/total", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var totalResp struct {
		TotalRevenue float64 `json:"total_revenue"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &totalResp))
	assert.InDelta(t, 35.75, totalResp.TotalRevenue, 1e-9)

	// Delete the middle record; a repeat delete is still a 204.
	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/ledger/%d", ids[1]), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/ledger/%d", ids[1]), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/ledger/total", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &totalResp))
	assert.InDelta(t, 15.25, totalResp.TotalRevenue, 1e-9)

	w = doJSON(t, router, http.MethodDelete, "/api/ledger", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/ledger/total", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &totalResp))
	assert.Zero(t, totalResp.TotalRevenue)
}

func TestGetVAPIDPublicKey(t *testing.T) {
	router, _ := newTestRouter(t, 1)

	w := doJSON(t, router, http.MethodGet, "/api/vapid_public_key", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test-public-key")
}
