package authsdk

import (
	"context"
	"net/http"
)

// GetHealth reports whether the server is serving.
func (c *SDKClient) GetHealth(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/api/health")
}

// GetReadiness returns an error with status 503 when the database or the
// signing key is unavailable.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/api/health/ready")
}

func (c *SDKClient) health(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil, false)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}

func (c *SDKClient) GetInfo(ctx context.Context) (*InfoResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/info", nil, nil, false)
	if err != nil {
		return nil, err
	}

	var info InfoResponse
	if err := decodeJSON(resp, &info, http.StatusOK); err != nil {
		return nil, err
	}
	return &info, nil
}
