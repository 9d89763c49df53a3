package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutSubscriptionInvalidBody(t *testing.T) {
	router, _ := newTestRouter(t, 1)

	w := doJSON(t, router, http.MethodPut, "/api/subscriptions", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Required fields missing.
	w = doJSON(t, router, http.MethodPut, "/api/subscriptions",
		map[string]any{"endpoint": "https://push.example.com/sub/1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscriptionRoundTrip(t *testing.T) {
	router, _ := newTestRouter(t, 2)

	w := doJSON(t, router, http.MethodPut, "/api/subscriptions", map[string]any{
		"endpoint":            "https://push.example.com/sub/1",
		"p256dh":              "key",
		"auth":                "secret",
		"subscribed_stations": []int64{1, 2},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/subscriptions?endpoint=https://push.example.com/sub/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"subscribed_stations":[1,2]}`, w.Body.String())

	// Replacing the subscription replaces the station set.
	w = doJSON(t, router, http.MethodPut, "/api/subscriptions", map[string]any{
		"endpoint":            "https://push.example.com/sub/1",
		"p256dh":              "rotated",
		"auth":                "rotated",
		"subscribed_stations": []int64{2},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/subscriptions?endpoint=https://push.example.com/sub/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"subscribed_stations":[2]}`, w.Body.String())

	w = doJSON(t, router, http.MethodDelete, "/api/subscriptions",
		map[string]any{"endpoint": "https://push.example.com/sub/1"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/subscriptions?endpoint=https://push.example.com/sub/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSubscriptionValidation(t *testing.T) {
	router, _ := newTestRouter(t, 1)

	w := doJSON(t, router, http.MethodGet, "/api/subscriptions", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/subscriptions?endpoint=https://push.example.com/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// Push endpoints are stored and compared byte-for-byte; a percent-encoded
// endpoint must survive the query string without being decoded along the way.
func TestGetSubscriptionRawEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, 1)

	endpoint := "https://push.example.com/sub/abc%2Fdef"
	w := doJSON(t, router, http.MethodPut, "/api/subscriptions", map[string]any{
		"endpoint":            endpoint,
		"p256dh":              "key",
		"auth":                "secret",
		"subscribed_stations": []int64{1},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/subscriptions?endpoint="+endpoint, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"subscribed_stations":[1]}`, w.Body.String())
}

func TestRawQueryParam(t *testing.T) {
	raw, ok := rawQueryParam("endpoint=https://a/b%2Fc&other=1", "endpoint")
	assert.True(t, ok)
	assert.Equal(t, "https://a/b%2Fc", raw)

	raw, ok = rawQueryParam("other=1", "endpoint")
	assert.False(t, ok)
	assert.Empty(t, raw)
}
