package server

import (
	"net/http"
	"time"

	"github.com/aristath/quantumflip/internal/utils"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":          "healthy",
		"quantum_backend": s.container.Source.Name(),
		"timestamp":       time.Now().Format(time.RFC3339),
	}

	utils.WriteResponse(w, r, http.StatusOK, response, s.log)
}
