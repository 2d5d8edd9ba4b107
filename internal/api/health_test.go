// Copyright (c) 2026 Comiket Bot. All rights reserved.

package api_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comiketbot/comiket/internal/api"
)

func newProbes(database, cache, discord error) (liveness, readiness http.HandlerFunc) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error { return database },
		CheckCache:    func() error { return cache },
		CheckDiscord:  func() error { return discord },
	}, logger)
}

/*
TestHealth_Liveness verifies that the liveness probe is unconditional.
*/
func TestHealth_Liveness(t *testing.T) {
	liveness, _ := newProbes(errors.New("down"), errors.New("down"), errors.New("down"))

	recorder := httptest.NewRecorder()
	liveness(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestHealth_Readiness verifies the aggregate status and per-dependency
results.
*/
func TestHealth_Readiness(t *testing.T) {
	t.Run("all dependencies healthy", func(t *testing.T) {
		_, readiness := newProbes(nil, nil, nil)

		recorder := httptest.NewRecorder()
		readiness(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("one dependency down degrades the probe", func(t *testing.T) {
		_, readiness := newProbes(nil, errors.New("redis: connection refused"), nil)

		recorder := httptest.NewRecorder()
		readiness(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)

		var payload struct {
			Status string `json:"status"`
			Checks []struct {
				Name  string `json:"name"`
				IsOK  bool   `json:"ok"`
				Error string `json:"error"`
			} `json:"checks"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))

		assert.Equal(t, "degraded", payload.Status)
		require.Len(t, payload.Checks, 3)
		assert.True(t, payload.Checks[0].IsOK)
		assert.False(t, payload.Checks[1].IsOK)
		assert.Equal(t, "redis: connection refused", payload.Checks[1].Error)
	})
}
