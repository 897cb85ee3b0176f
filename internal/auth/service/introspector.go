package service

import (
	"context"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/metrics"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// Introspection is the RFC 7662 response. Only Active is set for tokens
// that fail verification.
type Introspection struct {
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

type Introspector struct {
	Verifier *jwtx.Verifier
	Metrics  metrics.Recorder
	Clock    func() time.Time
}

// Introspect verifies token against the published keys. It never fails;
// anything that does not verify is reported inactive.
func (i *Introspector) Introspect(ctx context.Context, token string) Introspection {
	start := time.Now()
	now := start
	if i.Clock != nil {
		now = i.Clock()
	}

	out := i.introspect(ctx, token, now)
	if i.Metrics != nil {
		i.Metrics.RecordIntrospection(out.Active, time.Since(start))
	}
	return out
}

func (i *Introspector) introspect(ctx context.Context, token string, now time.Time) Introspection {
	if token == "" {
		return Introspection{}
	}

	claims, err := i.Verifier.Verify(token, now)
	if err != nil {
		slogx.FromContext(ctx).Debug("token inactive", "reason", err)
		return Introspection{}
	}

	out := Introspection{
		Active:    true,
		ClientID:  claims.ClientID,
		TenantID:  claims.TenantID,
		Scope:     claims.Scope,
		Sub:       claims.Subject,
		Iss:       claims.Issuer,
		Jti:       claims.ID,
		TokenType: claims.TokenType,
	}
	if claims.ExpiresAt != nil {
		out.Exp = claims.ExpiresAt.Unix()
	}
	if claims.IssuedAt != nil {
		out.Iat = claims.IssuedAt.Unix()
	}
	return out
}
