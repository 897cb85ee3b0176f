package authsdk

import (
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

// ============================================================================
// Error Types
// ============================================================================

// ErrorResponse is the body of every non-2xx response.
// Client code should use the OAuth2Error type from errors.go instead.
type ErrorResponse struct {
	Error            string `json:"error" example:"invalid_scope"`
	ErrorDescription string `json:"error_description,omitempty" example:"requested scope is invalid"`
}

// ============================================================================
// OAuth2 Types
// ============================================================================

// TokenResponse is returned by POST /oauth2/token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type" example:"Bearer"`
	ExpiresIn   int    `json:"expires_in" example:"3600"`
	Scope       string `json:"scope,omitempty" example:"read:data"`
	TenantID    string `json:"tenant_id,omitempty" example:"t1"`
}

// IntrospectionResponse is the RFC 7662 response. Inactive tokens carry
// only Active=false.
type IntrospectionResponse struct {
	Active    bool   `json:"active"`
	ClientID  string `json:"client_id,omitempty"`
	TenantID  string `json:"tenant_id,omitempty"`
	Scope     string `json:"scope,omitempty"`
	Exp       int64  `json:"exp,omitempty"`
	Iat       int64  `json:"iat,omitempty"`
	Sub       string `json:"sub,omitempty"`
	Iss       string `json:"iss,omitempty"`
	Jti       string `json:"jti,omitempty"`
	TokenType string `json:"token_type,omitempty"`
}

// JWKSResponse is the JSON Web Key Set published at
// GET /.well-known/jwks.json.
type JWKSResponse jwtx.JWKS

// ServerMetadata is the RFC 8414 authorization server metadata.
type ServerMetadata struct {
	Issuer                               string   `json:"issuer"`
	TokenEndpoint                        string   `json:"token_endpoint"`
	IntrospectionEndpoint                string   `json:"introspection_endpoint"`
	JWKSURI                              string   `json:"jwks_uri"`
	GrantTypesSupported                  []string `json:"grant_types_supported"`
	ResponseTypesSupported               []string `json:"response_types_supported"`
	ScopesSupported                      []string `json:"scopes_supported,omitempty"`
	TokenEndpointAuthMethodsSupported    []string `json:"token_endpoint_auth_methods_supported"`
	IntrospectionEndpointAuthMethods     []string `json:"introspection_endpoint_auth_methods_supported"`
	AccessTokenSigningAlgValuesSupported []string `json:"access_token_signing_alg_values_supported,omitempty"`
	ServiceDocumentation                 string   `json:"service_documentation,omitempty"`
}

// ============================================================================
// Client Types
// ============================================================================

// RegisterClientRequest is the body of POST /api/v1/clients.
type RegisterClientRequest struct {
	ClientName                 string   `json:"clientName" example:"svc"`
	TenantID                   string   `json:"tenantId" example:"t1"`
	Scopes                     []string `json:"scopes" example:"read:data"`
	GrantTypes                 []string `json:"grantTypes,omitempty" example:"client_credentials"`
	Description                string   `json:"description,omitempty"`
	ContactEmail               string   `json:"contactEmail,omitempty" example:"ops@example.com"`
	AccessTokenValiditySeconds *int     `json:"accessTokenValiditySeconds,omitempty" example:"3600"`
}

// RegisterClientResponse is the only response that ever carries the
// plaintext secret.
type RegisterClientResponse struct {
	ClientID                   string    `json:"clientId"`
	ClientSecret               string    `json:"clientSecret"`
	ClientName                 string    `json:"clientName"`
	TenantID                   string    `json:"tenantId"`
	Scopes                     []string  `json:"scopes"`
	GrantTypes                 []string  `json:"grantTypes"`
	AccessTokenValiditySeconds int       `json:"accessTokenValiditySeconds"`
	Status                     string    `json:"status"`
	CreatedAt                  time.Time `json:"createdAt"`
}

// Client describes a registered client without its secret.
type Client struct {
	ClientID                   string     `json:"clientId"`
	ClientName                 string     `json:"clientName"`
	TenantID                   string     `json:"tenantId"`
	Scopes                     []string   `json:"scopes"`
	GrantTypes                 []string   `json:"grantTypes"`
	AccessTokenValiditySeconds int        `json:"accessTokenValiditySeconds"`
	ContactEmail               string     `json:"contactEmail,omitempty"`
	Description                string     `json:"description,omitempty"`
	Status                     string     `json:"status"`
	CreatedAt                  time.Time  `json:"createdAt"`
	UpdatedAt                  time.Time  `json:"updatedAt"`
	LastUsedAt                 *time.Time `json:"lastUsedAt,omitempty"`
}

// ListClientsResponse is returned by GET /api/v1/clients.
type ListClientsResponse struct {
	Clients    []Client `json:"clients"`
	TotalCount int      `json:"totalCount"`
}

// ClientSummary is one entry of GET /api/clients.
type ClientSummary struct {
	ClientID   string     `json:"client_id"`
	ClientName string     `json:"client_name"`
	TenantID   string     `json:"tenant_id"`
	Scopes     []string   `json:"scopes"`
	GrantTypes []string   `json:"grant_types"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

// ClientSummaryList is returned by GET /api/clients.
type ClientSummaryList struct {
	Total   int             `json:"total"`
	Clients []ClientSummary `json:"clients"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /api/health and /api/health/ready.
type HealthResponse struct {
	Status       string        `json:"status" example:"ok"`
	Version      string        `json:"version,omitempty"`
	Uptime       string        `json:"uptime,omitempty"`
	Database     string        `json:"database,omitempty" example:"ok"`
	TotalClients int           `json:"total_clients"`
	Checks       *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports each critical dependency.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}

// InfoResponse is returned by GET /api/info.
type InfoResponse struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Version     string            `json:"version"`
	Features    []string          `json:"features"`
	Endpoints   map[string]string `json:"endpoints"`
}

// ============================================================================
// Key Types
// ============================================================================

// SigningKeyInfo describes a published signing key.
type SigningKeyInfo struct {
	Kid        string     `json:"kid"`
	Algorithm  string     `json:"algorithm"`
	State      string     `json:"state" example:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	RetiredAt  *time.Time `json:"retired_at,omitempty"`
	PurgeAfter *time.Time `json:"purge_after,omitempty"`
}

// ListKeysResponse is returned by GET /api/v1/keys.
type ListKeysResponse struct {
	Algorithm  string           `json:"algorithm"`
	Persistent bool             `json:"persistent"`
	Retention  string           `json:"retention"`
	Keys       []SigningKeyInfo `json:"keys"`
}

// RotateKeyResponse is returned by POST /api/v1/keys/rotate.
type RotateKeyResponse struct {
	New     SigningKeyInfo  `json:"new"`
	Retired *SigningKeyInfo `json:"retired,omitempty"`
}
