package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

func (c *SDKClient) ListKeys(ctx context.Context) (*ListKeysResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/keys", nil, nil, true)
	if err != nil {
		return nil, err
	}

	var out ListKeysResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RotateKey generates a new active signing key. The previous key stays in
// the JWKS for the server's retention window.
func (c *SDKClient) RotateKey(ctx context.Context) (*RotateKeyResponse, error) {
	resp, err := c.postJSON(ctx, "/api/v1/keys/rotate", nil, true)
	if err != nil {
		return nil, err
	}

	var out RotateKeyResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RetireKey retires kid without a replacement. Retiring the active key
// stops issuance until the next rotation.
func (c *SDKClient) RetireKey(ctx context.Context, kid string) (*SigningKeyInfo, error) {
	resp, err := c.postJSON(ctx, "/api/v1/keys/"+url.PathEscape(kid)+"/retire", nil, true)
	if err != nil {
		return nil, err
	}

	var out SigningKeyInfo
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
