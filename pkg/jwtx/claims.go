package jwtx

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "Bearer"

// Claims are the access-token claims for a client_credentials grant.
// Fields are additive; readers ignore what they do not know.
type Claims struct {
	jwt.RegisteredClaims

	ClientID string `json:"client_id"`
	TenantID string `json:"tenant_id,omitempty"`

	// Scope is space delimited as per RFC 6749 section 3.3.
	Scope string `json:"scope,omitempty"`

	TokenType string `json:"token_type,omitempty"`
}

// NewAccessClaims builds claims for a token issued to clientID at now.
// exp is exactly now + ttl; iat and nbf are now.
func NewAccessClaims(issuer, clientID, tenantID string, scopes []string, ttl time.Duration, now time.Time) Claims {
	now = now.UTC().Truncate(time.Second)
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		ClientID:  clientID,
		TenantID:  tenantID,
		Scope:     strings.Join(scopes, " "),
		TokenType: TokenTypeBearer,
	}
}

// NewJTI returns a random UUIDv4 for the "jti" claim.
func NewJTI() string {
	return uuid.NewString()
}

// Scopes splits the scope claim.
func (c Claims) Scopes() []string {
	return strings.Fields(c.Scope)
}
