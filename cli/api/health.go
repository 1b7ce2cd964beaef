package api

import (
	"context"
	"net/http"

	"curachain/api/server"
)

func (c *Client) Status(ctx context.Context) (server.StatusResponse, error) {
	var out server.StatusResponse
	err := c.do(ctx, http.MethodGet, "/status", nil, &out)
	return out, err
}

func (c *Client) Health(ctx context.Context) (server.NodeHealthResponse, error) {
	var out server.NodeHealthResponse
	err := c.do(ctx, http.MethodGet, "/nodehealth", nil, &out)
	return out, err
}

// Liveness and Readiness report false, not an error, when the node answers 503.
func (c *Client) Liveness(ctx context.Context) (bool, error) {
	var out server.LivenessResponse
	err := c.do(ctx, http.MethodGet, "/health/liveness", nil, &out)
	if isUnavailable(err) {
		return false, nil
	}
	return out.Alive, err
}

func (c *Client) Readiness(ctx context.Context) (bool, error) {
	var out server.ReadinessResponse
	err := c.do(ctx, http.MethodGet, "/health/readiness", nil, &out)
	if isUnavailable(err) {
		return false, nil
	}
	return out.Ready, err
}

func isUnavailable(err error) bool {
	apiErr, ok := err.(*Error)
	return ok && apiErr.Status == http.StatusServiceUnavailable
}
