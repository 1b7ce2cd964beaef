// liveness.go - Liveness probe logic for the CuraChain node
package server

import "context"

// NodeLiveness returns true while the ledger can be read.
func (s *Server) NodeLiveness(ctx context.Context) bool {
	_, err := s.engine.PlatformStats(ctx)
	return err == nil
}
