// status_handler.go - HTTP handler for /status
package server

import (
	"net/http"
)

// HandleStatus responds to /status with node status
func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	metrics := s.GetNodeMetrics(r.Context())
	head := s.engine.Ledger().Head()
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:       nodeStatus(metrics),
		Uptime:       metrics.UptimeSeconds,
		LedgerHeight: metrics.LedgerHeight,
		HeadID:       head.ID.String(),
		Version:      NodeVersion(),
		APIVersion:   APIVersion(),
		LastCommit:   metrics.LastCommitTime,
		Thresholds:   s.engine.Thresholds(),
		Metrics:      metrics,
	})
}
