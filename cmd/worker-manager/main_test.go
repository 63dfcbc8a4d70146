package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"subtrack-workers/internal/common/config"
	"subtrack-workers/internal/common/logger"
	"subtrack-workers/internal/common/usage"
	"subtrack-workers/internal/common/validation"
	"subtrack-workers/internal/entitlements"
	"subtrack-workers/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Health
// ==========================

func TestHealthMux(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name     string
		path     string
		checks   map[string]readinessCheck
		wantCode int
		wantBody string
	}{
		{"health", "/health", nil, http.StatusOK, "healthy"},
		{"ready", "/ready", map[string]readinessCheck{"postgres": healthy}, http.StatusOK, "ready"},
		{"not ready", "/ready", map[string]readinessCheck{"postgres": healthy, "redis": down}, http.StatusServiceUnavailable, "not ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newHealthMux(tt.checks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body["status"])
			if tt.wantCode != http.StatusOK {
				assert.Contains(t, body["failed"], "redis")
			}
		})
	}
}

func TestHealthMux_Metrics(t *testing.T) {
	rec := httptest.NewRecorder()
	newHealthMux(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

// ==========================
// Worker registration
// ==========================

func TestBuildHandlers(t *testing.T) {
	schemas, err := validation.NewSchemaValidator(0)
	require.NoError(t, err)
	d := &dependencies{
		evaluator: entitlements.NewEvaluator(nil),
		usage:     usage.NewStore(nil, nil, 0, logger.NewNoOpLogger()),
		registry:  &registry.ActivityRegistry{},
		schemas:   schemas,
	}

	cfg := &config.Config{Workers: map[string]config.WorkerConfig{
		"index-subscriptions": {Enabled: false},
	}}

	handlers, err := buildHandlers(cfg, d, logger.NewTestLogger(t))
	require.NoError(t, err)

	assert.Len(t, handlers, len(workerSpecs)-1)
	assert.NotContains(t, handlers, "index-subscriptions")
	for _, tt := range []string{"check-feature-access", "parse-import-file", "validate-import-batch", "create-subscription-records", "send-import-summary"} {
		assert.Contains(t, handlers, tt)
	}
}

func TestBuildHandlers_BadTemplatePath(t *testing.T) {
	cfg := &config.Config{}
	cfg.Notifications.TemplatesPath = "does/not/exist.yaml"

	schemas, err := validation.NewSchemaValidator(0)
	require.NoError(t, err)
	d := &dependencies{registry: &registry.ActivityRegistry{}, schemas: schemas}

	_, err = buildHandlers(cfg, d, logger.NewNoOpLogger())
	assert.ErrorContains(t, err, "send-import-summary")
}
