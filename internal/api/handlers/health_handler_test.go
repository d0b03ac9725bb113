package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Silk-Dev/Mounasabat-sub006/internal/api/handlers"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_AllDependenciesUp(t *testing.T) {
	handler := handlers.NewHealthHandler(
		handlers.HealthCheck{Name: "postgres", Pinger: pingerFunc(func(context.Context) error { return nil })},
		handlers.HealthCheck{Name: "redis", Pinger: pingerFunc(func(context.Context) error { return nil })},
	)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handler.Health(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, map[string]string{"postgres": "ok", "redis": "ok"}, body.Checks)
}

func TestHealthHandler_DegradedStillAnswers200(t *testing.T) {
	handler := handlers.NewHealthHandler(
		handlers.HealthCheck{Name: "postgres", Pinger: pingerFunc(func(context.Context) error { return nil })},
		handlers.HealthCheck{Name: "redis", Pinger: pingerFunc(func(context.Context) error {
			return errors.New("connection refused")
		})},
	)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handler.Health(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Checks["postgres"])
	assert.Equal(t, "connection refused", body.Checks["redis"])
}

func TestHealthHandler_NoChecks(t *testing.T) {
	handler := handlers.NewHealthHandler()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handler.Health(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
}
