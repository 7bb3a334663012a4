// Package handlers provides HTTP handlers for coin flips and backend information.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/aristath/quantumflip/internal/modules/trials"
	"github.com/aristath/quantumflip/internal/utils"
	"github.com/rs/zerolog"
)

// Flipper draws a single outcome
type Flipper interface {
	Flip(ctx context.Context) (*trials.FlipResult, error)
}

// BackendInfo describes the configured randomness source
type BackendInfo struct {
	Backend             string
	Quantum             bool
	MaxShots            int
	BatchSize           int
	BatchDelay          time.Duration
	MaxTrialsPerRequest int
	SaltConfigured      bool
}

// Handler handles quantum HTTP requests
type Handler struct {
	flipper Flipper
	info    BackendInfo
	log     zerolog.Logger
}

// NewHandler creates a new quantum handler
func NewHandler(
	flipper Flipper,
	info BackendInfo,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		flipper: flipper,
		info:    info,
		log:     log.With().Str("handler", "quantum").Logger(),
	}
}

// HandleFlip handles POST /api/quantum/flip
func (h *Handler) HandleFlip(w http.ResponseWriter, r *http.Request) {
	result, err := h.flipper.Flip(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Quantum flip failed")
		utils.WriteResponse(w, r, http.StatusInternalServerError, map[string]interface{}{
			"error":   err.Error(),
			"quantum": false,
		}, h.log)
		return
	}

	utils.WriteResponse(w, r, http.StatusOK, result, h.log)
}

// HandleGetBackend handles GET /api/quantum/backend
func (h *Handler) HandleGetBackend(w http.ResponseWriter, r *http.Request) {
	salt := "using_default"
	if h.info.SaltConfigured {
		salt = "configured"
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"service":                "quantum-random",
			"backend":                h.info.Backend,
			"quantum":                h.info.Quantum,
			"max_shots":              h.info.MaxShots,
			"batch_size":             h.info.BatchSize,
			"batch_delay_ms":         h.info.BatchDelay.Milliseconds(),
			"max_trials_per_request": h.info.MaxTrialsPerRequest,
			"privacy": map[string]interface{}{
				"salt": salt,
			},
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	utils.WriteResponse(w, r, http.StatusOK, response, h.log)
}
