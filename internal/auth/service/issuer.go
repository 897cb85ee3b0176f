package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

// SigningKeySource yields the key new tokens are signed with.
type SigningKeySource interface {
	SigningKey() (jwtx.Signer, error)
}

// IssuedToken is a signed access token and the values echoed in the token
// response.
type IssuedToken struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int
	Scope       string
	TenantID    string
	Kid         string
	ExpiresAt   time.Time
}

type Issuer struct {
	Keys       SigningKeySource
	IssuerURL  string
	DefaultTTL time.Duration
	Clock      func() time.Time
}

// Issue signs an access token for grant with the currently active key.
func (i *Issuer) Issue(_ context.Context, grant ValidatedGrant) (IssuedToken, error) {
	signer, err := i.Keys.SigningKey()
	if err != nil {
		return IssuedToken{}, err
	}

	ttl := grant.TTL
	if ttl <= 0 {
		ttl = i.DefaultTTL
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := time.Now()
	if i.Clock != nil {
		now = i.Clock()
	}

	claims := jwtx.NewAccessClaims(i.IssuerURL, grant.ClientID, grant.TenantID, grant.Scopes, ttl, now)
	token, err := signer.Sign(claims)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign access token: %w", err)
	}

	return IssuedToken{
		AccessToken: token,
		TokenType:   jwtx.TokenTypeBearer,
		ExpiresIn:   int(ttl.Seconds()),
		Scope:       strings.Join(grant.Scopes, " "),
		TenantID:    grant.TenantID,
		Kid:         signer.KID(),
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}
