package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/quantumflip/internal/modules/quantum"
	"github.com/aristath/quantumflip/internal/modules/trials"
	"github.com/aristath/quantumflip/internal/utils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type stubFlipper struct {
	result *trials.FlipResult
	err    error
}

func (s *stubFlipper) Flip(ctx context.Context) (*trials.FlipResult, error) {
	return s.result, s.err
}

func headsFlip() *trials.FlipResult {
	return &trials.FlipResult{
		Outcome:      quantum.Heads,
		Outcomes:     []quantum.Outcome{quantum.Heads},
		Counts:       map[string]int{"1": 1},
		Quantum:      true,
		CircuitDepth: 2,
		GateCount:    2,
		Timestamp:    time.Now(),
		Shots:        1,
		Backend:      quantum.SimulatorBackend,
	}
}

func testInfo() BackendInfo {
	return BackendInfo{
		Backend:             quantum.SimulatorBackend,
		Quantum:             true,
		MaxShots:            quantum.MaxShots,
		BatchSize:           100,
		BatchDelay:          100 * time.Millisecond,
		MaxTrialsPerRequest: 1000,
	}
}

func TestHandleFlip(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	handler := NewHandler(&stubFlipper{result: headsFlip()}, testInfo(), logger)

	req := httptest.NewRequest("POST", "/api/quantum/flip", nil)
	w := httptest.NewRecorder()

	handler.HandleFlip(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response map[string]interface{}
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)

	assert.Equal(t, "Heads", response["outcome"])
	assert.Equal(t, true, response["quantum"])
	assert.Equal(t, float64(2), response["circuit_depth"])
	assert.Equal(t, float64(1), response["shots"])
	assert.Contains(t, response, "timestamp")
}

func TestHandleFlip_SourceFailure(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	failure := &quantum.SourceError{Backend: "mock", Err: errors.New("device offline")}
	handler := NewHandler(&stubFlipper{err: failure}, testInfo(), logger)

	req := httptest.NewRequest("POST", "/api/quantum/flip", nil)
	w := httptest.NewRecorder()

	handler.HandleFlip(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var response map[string]interface{}
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)

	assert.Equal(t, false, response["quantum"])
	assert.Contains(t, response["error"], "device offline")
}

func TestHandleFlip_Msgpack(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	handler := NewHandler(&stubFlipper{result: headsFlip()}, testInfo(), logger)

	req := httptest.NewRequest("POST", "/api/quantum/flip", nil)
	req.Header.Set("Accept", utils.MsgpackContentType)
	w := httptest.NewRecorder()

	handler.HandleFlip(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, utils.MsgpackContentType, w.Header().Get("Content-Type"))

	var response map[string]interface{}
	require.NoError(t, msgpack.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Heads", response["outcome"])
	assert.Equal(t, true, response["quantum"])
}

func TestHandleFlip_WithSimulator(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	orchestrator := trials.NewOrchestrator(quantum.NewSimulator(), nil, trials.Config{MaxBatchSize: 100}, logger)
	handler := NewHandler(orchestrator, testInfo(), logger)

	req := httptest.NewRequest("POST", "/api/quantum/flip", nil)
	w := httptest.NewRecorder()

	handler.HandleFlip(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result trials.FlipResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.True(t, result.Outcome.Valid())
	assert.Equal(t, quantum.SimulatorBackend, result.Backend)
}

func TestHandleGetBackend(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)

	testCases := []struct {
		name       string
		configured bool
		expected   string
	}{
		{"default salt", false, "using_default"},
		{"configured salt", true, "configured"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			info := testInfo()
			info.SaltConfigured = tc.configured
			handler := NewHandler(&stubFlipper{}, info, logger)

			req := httptest.NewRequest("GET", "/api/quantum/backend", nil)
			w := httptest.NewRecorder()

			handler.HandleGetBackend(w, req)

			assert.Equal(t, http.StatusOK, w.Code)

			var response map[string]interface{}
			err := json.NewDecoder(w.Body).Decode(&response)
			require.NoError(t, err)

			data := response["data"].(map[string]interface{})
			assert.Equal(t, quantum.SimulatorBackend, data["backend"])
			assert.Equal(t, float64(100), data["max_shots"])
			assert.Equal(t, float64(100), data["batch_delay_ms"])
			privacyInfo := data["privacy"].(map[string]interface{})
			assert.Equal(t, tc.expected, privacyInfo["salt"])
			assert.Contains(t, response, "metadata")
		})
	}
}
