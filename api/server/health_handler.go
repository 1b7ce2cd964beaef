// health_handler.go - HTTP handler for /nodehealth, /health/liveness, /health/readiness
package server

import (
	"net/http"
)

// HandleLiveness responds to /health/liveness
func (s *Server) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	alive := s.NodeLiveness(r.Context())
	status := http.StatusOK
	if !alive {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, LivenessResponse{Alive: alive})
}

// HandleReadiness responds to /health/readiness
func (s *Server) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ready := s.NodeReadiness(r.Context())
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, ReadinessResponse{Ready: ready})
}

// NodeHealthResponse is the response type for the /nodehealth endpoint
type NodeHealthResponse struct {
	Status  string      `json:"status"`
	Metrics NodeMetrics `json:"metrics"`
}

// HandleNodeHealth responds to /nodehealth (summary health)
func (s *Server) HandleNodeHealth(w http.ResponseWriter, r *http.Request) {
	metrics := s.GetNodeMetrics(r.Context())
	writeJSON(w, http.StatusOK, NodeHealthResponse{
		Status:  nodeStatus(metrics),
		Metrics: metrics,
	})
}
