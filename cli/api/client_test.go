package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendsTokenAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/v1/cases/CASE0001/donations", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 250, body["amount"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"seq":7,"case":{"caseId":"CASE0001","amountRaised":250}}`))
	}))
	defer srv.Close()

	rc, err := NewClient(srv.URL+"/", "tok").Donate(context.Background(), "CASE0001", 250)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), rc.Seq)
	assert.Equal(t, uint64(250), rc.Case.AmountRaised)
}

func TestClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health/readiness":
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"ready":false}`))
		case "/api/v1/stats":
			http.Error(w, "boom", http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"code":"EXCEEDS_REMAINING_NEED","kind":"validation","message":"amount exceeds remaining need"}`))
		}
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "")
	ctx := context.Background()

	_, err := c.Donate(ctx, "CASE0001", 5)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "EXCEEDS_REMAINING_NEED", apiErr.Code)

	_, err = c.Stats(ctx)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Bad Gateway", apiErr.Code)
	assert.Equal(t, "boom", apiErr.Message)

	ready, err := c.Readiness(ctx)
	require.NoError(t, err)
	assert.False(t, ready)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("", "")
	assert.Equal(t, DefaultNode, c.BaseURL)
}
