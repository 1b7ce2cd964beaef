// status_response.go - JSON response structs for status/health endpoints
package server

import "curachain/core/crowdfund"

// StatusResponse represents the JSON structure for /status endpoint
type StatusResponse struct {
	Status       string               `json:"status"`
	Uptime       int64                `json:"uptime_seconds"`
	LedgerHeight uint64               `json:"ledger_height"`
	HeadID       string               `json:"head_id"`
	Version      string               `json:"version"`
	APIVersion   string               `json:"api_version"`
	LastCommit   string               `json:"last_commit_time,omitempty"`
	Thresholds   crowdfund.Thresholds `json:"thresholds"`
	Metrics      NodeMetrics          `json:"metrics"`
}

// LivenessResponse for /health/liveness
type LivenessResponse struct {
	Alive bool `json:"alive"`
}

// ReadinessResponse for /health/readiness
type ReadinessResponse struct {
	Ready bool `json:"ready"`
}
