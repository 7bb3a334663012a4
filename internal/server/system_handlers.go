package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/aristath/quantumflip/internal/modules/quantum"
	"github.com/aristath/quantumflip/internal/scheduler"
	"github.com/aristath/quantumflip/internal/utils"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers handles system-wide monitoring and operations endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	source      quantum.BitSource
	scheduler   *scheduler.Scheduler

	// sourceHealthJob is nil when the self-test is disabled
	sourceHealthJob *scheduler.SourceHealthJob
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	log zerolog.Logger,
	source quantum.BitSource,
	sched *scheduler.Scheduler,
	sourceHealthJob *scheduler.SourceHealthJob,
) *SystemHandlers {
	return &SystemHandlers{
		log:             log.With().Str("component", "system_handlers").Logger(),
		startupTime:     time.Now(),
		source:          source,
		scheduler:       sched,
		sourceHealthJob: sourceHealthJob,
	}
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status        string                        `json:"status"`
	UptimeSeconds int64                         `json:"uptime_seconds"`
	CPUPercent    float64                       `json:"cpu_percent"`
	RAMPercent    float64                       `json:"ram_percent"`
	Goroutines    int                           `json:"goroutines"`
	Backend       string                        `json:"backend"`
	Quantum       bool                          `json:"quantum"`
	SelfTest      *scheduler.SourceHealthResult `json:"self_test"`
	Jobs          []scheduler.JobStatus         `json:"jobs"`
	Timestamp     string                        `json:"timestamp"`
}

// HandleSystemStatus returns process and source health
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, ramPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		Goroutines:    runtime.NumGoroutine(),
		Backend:       h.source.Name(),
		Quantum:       h.source.Quantum(),
		Jobs:          []scheduler.JobStatus{},
		Timestamp:     time.Now().Format(time.RFC3339),
	}

	if h.scheduler != nil {
		response.Jobs = h.scheduler.Statuses()
	}

	if h.sourceHealthJob != nil {
		if result, ok := h.sourceHealthJob.LastResult(); ok {
			response.SelfTest = &result
			if !result.Passed {
				response.Status = "degraded"
			}
		}
	}

	utils.WriteResponse(w, r, http.StatusOK, response, h.log)
}

// HandleTriggerSelfTest runs the source self-test immediately
// POST /api/system/self-test
func (h *SystemHandlers) HandleTriggerSelfTest(w http.ResponseWriter, r *http.Request) {
	if h.sourceHealthJob == nil || h.scheduler == nil {
		h.log.Warn().Msg("Source self-test not registered")
		http.Error(w, "Source self-test is disabled", http.StatusNotFound)
		return
	}

	h.log.Info().Msg("Manual source self-test triggered")

	if err := h.scheduler.RunNow(h.sourceHealthJob); err != nil {
		h.log.Warn().Err(err).Msg("Manual source self-test did not pass")
	}

	result, _ := h.sourceHealthJob.LastResult()
	utils.WriteResponse(w, r, http.StatusOK, result, h.log)
}

// getSystemStats calculates CPU and RAM usage percentages
// Samples CPU over 100ms to keep the call fast
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	// Get memory statistics (instant, no blocking)
	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
