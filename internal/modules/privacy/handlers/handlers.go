// Package handlers provides HTTP handlers for privacy-preserving statistics.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aristath/quantumflip/internal/modules/privacy"
	"github.com/aristath/quantumflip/internal/utils"
	"github.com/rs/zerolog"
)

// Handler handles privacy HTTP requests
type Handler struct {
	aggregator     *privacy.Aggregator
	defaultEpsilon float64
	quantum        bool
	log            zerolog.Logger
}

// NewHandler creates a new privacy handler. quantumBacked is echoed in
// responses to tell clients which kind of source produced the trials.
func NewHandler(
	aggregator *privacy.Aggregator,
	defaultEpsilon float64,
	quantumBacked bool,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		aggregator:     aggregator,
		defaultEpsilon: defaultEpsilon,
		quantum:        quantumBacked,
		log:            log.With().Str("handler", "privacy").Logger(),
	}
}

// StatsRequest is the body of POST /api/privacy/stats
type StatsRequest struct {
	Results []privacy.StatsRecord `json:"results"`
	Epsilon *float64              `json:"epsilon"`
}

// StatsResponse is what gets released. Raw counts never leave the process.
type StatsResponse struct {
	HeadsCount                 int     `json:"heads_count"`
	TailsCount                 int     `json:"tails_count"`
	TotalTrials                int     `json:"total_trials"`
	HeadsPercentage            float64 `json:"heads_percentage"`
	SkippedRecords             int     `json:"skipped_records"`
	Quantum                    bool    `json:"quantum"`
	PrivacyPreserved           bool    `json:"privacy_preserved"`
	DifferentialPrivacyApplied bool    `json:"differential_privacy_applied"`
	PrivacyBudgetUsed          float64 `json:"privacy_budget_used"`
}

// HandleStats handles POST /api/privacy/stats
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	var req StatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	epsilon := h.defaultEpsilon
	if req.Epsilon != nil {
		epsilon = *req.Epsilon
	}

	stats, err := h.aggregator.Aggregate(req.Results, epsilon)
	if err != nil {
		var aggErr *privacy.AggregationError
		if errors.As(err, &aggErr) || errors.Is(err, privacy.ErrInvalidEpsilon) {
			h.log.Warn().Err(err).Msg("Rejected stats request")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Msg("Failed to aggregate stats")
		utils.WriteResponse(w, r, http.StatusInternalServerError, map[string]interface{}{
			"error": err.Error(),
		}, h.log)
		return
	}

	// Heads and tails count disjoint records, so releasing both spends epsilon once.
	utils.WriteResponse(w, r, http.StatusOK, StatsResponse{
		HeadsCount:                 stats.NoisyHeads,
		TailsCount:                 stats.NoisyTails,
		TotalTrials:                stats.TotalTrials,
		HeadsPercentage:            stats.HeadsPercentage,
		SkippedRecords:             stats.SkippedRecords,
		Quantum:                    h.quantum,
		PrivacyPreserved:           true,
		DifferentialPrivacyApplied: true,
		PrivacyBudgetUsed:          stats.Epsilon,
	}, h.log)
}
