package authsdk

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

// GetJWKS retrieves the JSON Web Key Set for token verification.
func (c *SDKClient) GetJWKS(ctx context.Context) (*JWKSResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/.well-known/jwks.json", nil, nil, false)
	if err != nil {
		return nil, err
	}

	var jwks JWKSResponse
	if err := decodeJSON(resp, &jwks, http.StatusOK); err != nil {
		return nil, err
	}
	return &jwks, nil
}

// GetServerMetadata retrieves the RFC 8414 discovery document.
func (c *SDKClient) GetServerMetadata(ctx context.Context) (*ServerMetadata, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/.well-known/oauth-authorization-server", nil, nil, false)
	if err != nil {
		return nil, err
	}

	var md ServerMetadata
	if err := decodeJSON(resp, &md, http.StatusOK); err != nil {
		return nil, err
	}
	return &md, nil
}

// VerifyToken checks token offline against the currently published JWKS,
// the way a resource server would. issuer may be empty to skip the check.
func (c *SDKClient) VerifyToken(ctx context.Context, token, issuer string) (*jwtx.Claims, error) {
	jwks, err := c.GetJWKS(ctx)
	if err != nil {
		return nil, err
	}
	keys, err := jwtx.NewKeySetFromJWKS(jwtx.JWKS(*jwks))
	if err != nil {
		return nil, fmt.Errorf("load jwks: %w", err)
	}
	return jwtx.NewVerifier(keys, jwtx.VerifyOptions{Issuer: issuer}).Verify(token, time.Now())
}
