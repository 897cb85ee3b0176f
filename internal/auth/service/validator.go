package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// ValidatedGrant is the outcome of a successful credential check.
type ValidatedGrant struct {
	ClientID string
	TenantID string
	Scopes   []string

	// TTL is zero when the client has no TTL of its own.
	TTL time.Duration
}

// Validator authenticates clients for the client_credentials grant.
type Validator struct {
	Store  store.Store
	Hasher *cryptox.SecretHasher
}

// Validate checks the client's secret and resolves the requested scope.
// Unknown clients and bad secrets are indistinguishable: both cost one
// Argon2id verification and return ErrInvalidClient.
func (v *Validator) Validate(ctx context.Context, clientID, clientSecret, requestedScope string) (ValidatedGrant, error) {
	l := slogx.FromContext(ctx)

	client, err := v.Store.Clients().GetClientByID(ctx, clientID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		_ = v.Hasher.Verify(clientSecret, "")
		l.Info("token request for unknown client", slog.String("client_id", clientID))
		return ValidatedGrant{}, ErrInvalidClient
	case err != nil:
		return ValidatedGrant{}, fmt.Errorf("get client: %w", err)
	}

	if err := v.Hasher.Verify(clientSecret, client.SecretHash); err != nil {
		l.Info("client authentication failed", slog.String("client_id", clientID))
		return ValidatedGrant{}, ErrInvalidClient
	}

	if !client.IsActive() {
		l.Info("token request for inactive client",
			slog.String("client_id", clientID),
			slog.String("status", string(client.Status)),
		)
		return ValidatedGrant{}, ErrInvalidClient
	}

	if !client.HasGrantType(domain.GrantClientCredentials) {
		return ValidatedGrant{}, fmt.Errorf("%w: client_credentials not allowed for this client", ErrInvalidScope)
	}

	scopes, err := resolveScopes(client, requestedScope)
	if err != nil {
		l.Info("scope request rejected",
			slog.String("client_id", clientID),
			slog.String("requested", requestedScope),
		)
		return ValidatedGrant{}, err
	}

	return ValidatedGrant{
		ClientID: client.ID,
		TenantID: client.TenantID,
		Scopes:   scopes,
		TTL:      client.AccessTokenTTL,
	}, nil
}

// resolveScopes returns the requested scopes, or every granted scope when
// none were requested.
func resolveScopes(client domain.Client, requested string) ([]string, error) {
	want := dedupe(httpx.SplitScopes(requested))
	if len(want) == 0 {
		return slices.Clone(client.Scopes), nil
	}
	for _, s := range want {
		if !client.HasScope(s) {
			return nil, fmt.Errorf("%w: %q is not granted to this client", ErrInvalidScope, s)
		}
	}
	return want, nil
}
