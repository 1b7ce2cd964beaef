// readiness.go - Readiness probe logic for the CuraChain node
package server

import "context"

// NodeReadiness returns true once genesis has created the verifier registry.
func (s *Server) NodeReadiness(ctx context.Context) bool {
	_, err := s.engine.ListVerifiers(ctx)
	return err == nil
}
