package authsdk

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// RegisterClient registers a client. The returned secret is never
// retrievable again.
func (c *SDKClient) RegisterClient(ctx context.Context, req RegisterClientRequest) (*RegisterClientResponse, error) {
	resp, err := c.postJSON(ctx, "/api/v1/clients", req, true)
	if err != nil {
		return nil, err
	}

	var out RegisterClientResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListClients lists registered clients, optionally for one tenant.
func (c *SDKClient) ListClients(ctx context.Context, tenantID string) (*ListClientsResponse, error) {
	path := "/api/v1/clients"
	if tenantID != "" {
		path += "?" + url.Values{"tenantId": {tenantID}}.Encode()
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil, true)
	if err != nil {
		return nil, err
	}

	var out ListClientsResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListClientSummaries calls the snake_case listing at GET /api/clients.
func (c *SDKClient) ListClientSummaries(ctx context.Context, tenantID string) (*ClientSummaryList, error) {
	path := "/api/clients"
	if tenantID != "" {
		path += "?" + url.Values{"tenant_id": {tenantID}}.Encode()
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil, true)
	if err != nil {
		return nil, err
	}

	var out ClientSummaryList
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *SDKClient) GetClient(ctx context.Context, clientID string) (*Client, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/clients/"+url.PathEscape(clientID), nil, nil, true)
	if err != nil {
		return nil, err
	}

	var out Client
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetClientSecret always fails: with ErrSecretNotRetrievable for known
// clients and ErrClientNotFound otherwise.
func (c *SDKClient) GetClientSecret(ctx context.Context, clientID string) error {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/clients/"+url.PathEscape(clientID)+"/secret", nil, nil, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return parseErrorResponse(resp, body)
}

// DeactivateClient marks the client DEPRECATED and returns its new state.
func (c *SDKClient) DeactivateClient(ctx context.Context, clientID string) (*Client, error) {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/api/v1/clients/"+url.PathEscape(clientID), nil, nil, true)
	if err != nil {
		return nil, err
	}

	var out Client
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
