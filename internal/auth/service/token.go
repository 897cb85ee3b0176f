package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/metrics"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// TokenService serves the client_credentials grant.
type TokenService struct {
	Validator *Validator
	Issuer    *Issuer
	Store     store.Store
	Metrics   metrics.Recorder
}

// ExchangeClientCredentials authenticates the client, signs a token for the
// resolved scopes and stamps the client's last use.
func (s *TokenService) ExchangeClientCredentials(
	ctx context.Context,
	clientID, clientSecret, scope string,
) (IssuedToken, error) {
	start := time.Now()
	l := slogx.FromContext(ctx)
	rec := s.Metrics
	if rec == nil {
		rec = metrics.NewNoop()
	}

	grant, err := s.Validator.Validate(ctx, clientID, clientSecret, scope)
	if err != nil {
		rec.RecordTokenRejected(rejectionReason(err))
		return IssuedToken{}, err
	}

	tok, err := s.Issuer.Issue(ctx, grant)
	if err != nil {
		rec.RecordTokenRejected(rejectionReason(err))
		if errors.Is(err, ErrNoActiveKey) {
			l.Error("token issuance failed: no active signing key", slog.String("client_id", clientID))
		}
		return IssuedToken{}, err
	}

	if err := s.Store.Clients().TouchClientLastUsed(ctx, grant.ClientID, time.Now().UTC()); err != nil {
		l.Warn("failed to record client last use", slog.String("client_id", grant.ClientID), slog.Any("error", err))
	}

	rec.RecordTokenIssued(domain.GrantClientCredentials, time.Since(start))
	l.Info("access token issued",
		slog.String("client_id", grant.ClientID),
		slog.String("tenant_id", grant.TenantID),
		slog.String("scope", tok.Scope),
		slog.String("kid", tok.Kid),
		slog.Int("expires_in", tok.ExpiresIn),
	)
	return tok, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidClient):
		return metrics.ReasonInvalidClient
	case errors.Is(err, ErrInvalidScope):
		return metrics.ReasonInvalidScope
	case errors.Is(err, ErrNoActiveKey):
		return metrics.ReasonNoActiveKey
	default:
		return metrics.ReasonInternal
	}
}
