// Package handlers provides HTTP handlers for batched trial runs.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aristath/quantumflip/internal/modules/trials"
	"github.com/aristath/quantumflip/internal/utils"
	"github.com/rs/zerolog"
)

// Request defaults
const (
	DefaultCount       = 1
	DefaultUserID      = "anonymous"
	DefaultPrivacyMode = true
)

// Runner runs a batch of trials
type Runner interface {
	RunTrials(ctx context.Context, count int, subjectID string, privacyMode bool) *trials.TrialRunResult
}

// Handler handles trial HTTP requests
type Handler struct {
	runner    Runner
	maxTrials int
	log       zerolog.Logger
}

// NewHandler creates a new trials handler
func NewHandler(runner Runner, maxTrials int, log zerolog.Logger) *Handler {
	return &Handler{
		runner:    runner,
		maxTrials: maxTrials,
		log:       log.With().Str("handler", "trials").Logger(),
	}
}

// RunRequest is the body of POST /api/trials. Missing fields take the defaults.
type RunRequest struct {
	Count       *int    `json:"count"`
	UserID      *string `json:"user_id"`
	PrivacyMode *bool   `json:"privacy_mode"`
}

func (req RunRequest) values() (count int, userID string, privacyMode bool) {
	count, userID, privacyMode = DefaultCount, DefaultUserID, DefaultPrivacyMode
	if req.Count != nil {
		count = *req.Count
	}
	if req.UserID != nil {
		userID = *req.UserID
	}
	if req.PrivacyMode != nil {
		privacyMode = *req.PrivacyMode
	}
	return count, userID, privacyMode
}

// HandleRunTrials handles POST /api/trials
func (h *Handler) HandleRunTrials(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	count, userID, privacyMode := req.values()
	if count < 0 {
		http.Error(w, "count must not be negative", http.StatusBadRequest)
		return
	}
	if count > h.maxTrials {
		http.Error(w, fmt.Sprintf("Maximum %d trials per request", h.maxTrials), http.StatusBadRequest)
		return
	}

	result := h.runner.RunTrials(r.Context(), count, userID, privacyMode)
	if !result.Success {
		status := http.StatusInternalServerError
		if errors.Is(result.Err, trials.ErrInvalidCount) {
			status = http.StatusBadRequest
		}
		h.log.Error().Err(result.Err).Str("run_id", result.RunID).Msg("Trial run failed")
		utils.WriteResponse(w, r, status, result, h.log)
		return
	}

	utils.WriteResponse(w, r, http.StatusOK, result, h.log)
}
