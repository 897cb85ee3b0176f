package service

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/stretchr/testify/require"
)

func TestRegisterReturnsFreshCredentials(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a := e.register(t, svcSpec())
	b := e.register(t, svcSpec())

	require.NotEqual(t, a.Client.ID, b.Client.ID)
	require.NotEqual(t, a.PlaintextSecret, b.PlaintextSecret)
	require.True(t, strings.HasPrefix(a.Client.ID, "svc-"))
	require.Empty(t, a.Client.SecretHash)
	require.Equal(t, domain.ClientActive, a.Client.Status)

	stored, err := e.store.Clients().GetClientByID(ctx, a.Client.ID)
	require.NoError(t, err)
	require.NotContains(t, stored.SecretHash, a.PlaintextSecret)

	grant, err := e.validator.Validate(ctx, a.Client.ID, a.PlaintextSecret, "")
	require.NoError(t, err)
	require.Equal(t, a.Client.ID, grant.ClientID)

	_, err = e.validator.Validate(ctx, b.Client.ID, a.PlaintextSecret, "")
	require.ErrorIs(t, err, ErrInvalidClient)
}

func TestRegisterDefaultsGrantTypes(t *testing.T) {
	e := newEnv(t)
	spec := svcSpec()
	spec.GrantTypes = nil

	rc := e.register(t, spec)
	require.Equal(t, []string{domain.GrantClientCredentials}, rc.Client.GrantTypes)
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name  string
		edit  func(*ClientSpec)
		field string
	}{
		{"missing name", func(s *ClientSpec) { s.Name = "  " }, "clientName"},
		{"missing tenant", func(s *ClientSpec) { s.TenantID = "" }, "tenantId"},
		{"no scopes", func(s *ClientSpec) { s.Scopes = nil }, "scopes"},
		{"blank scopes", func(s *ClientSpec) { s.Scopes = []string{" ", ""} }, "scopes"},
		{"scope with quote", func(s *ClientSpec) { s.Scopes = []string{`read"data`} }, "scopes"},
		{"unknown grant", func(s *ClientSpec) { s.GrantTypes = []string{"implicit"} }, "grantTypes"},
		{"password grant", func(s *ClientSpec) { s.GrantTypes = []string{"password"} }, "grantTypes"},
		{"mixed grants", func(s *ClientSpec) { s.GrantTypes = []string{"client_credentials", "refresh_token"} }, "grantTypes"},
		{"zero ttl", func(s *ClientSpec) { s.AccessTokenTTLSeconds = intPtr(0) }, "accessTokenValiditySeconds"},
		{"negative ttl", func(s *ClientSpec) { s.AccessTokenTTLSeconds = intPtr(-5) }, "accessTokenValiditySeconds"},
		{"ttl over max", func(s *ClientSpec) { s.AccessTokenTTLSeconds = intPtr(86401) }, "accessTokenValiditySeconds"},
		{"ttl wrapping duration", func(s *ClientSpec) { s.AccessTokenTTLSeconds = intPtr(18446747674) }, "accessTokenValiditySeconds"},
		{"ttl max int", func(s *ClientSpec) { s.AccessTokenTTLSeconds = intPtr(math.MaxInt) }, "accessTokenValiditySeconds"},
		{"bad email", func(s *ClientSpec) { s.ContactEmail = "not-an-email" }, "contactEmail"},
		{"display name email", func(s *ClientSpec) { s.ContactEmail = "Ops <ops@example.com>" }, "contactEmail"},
		{"long description", func(s *ClientSpec) { s.Description = strings.Repeat("x", 1025) }, "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := svcSpec()
			tt.edit(&spec)

			_, err := e.registry.Register(context.Background(), spec)
			require.ErrorIs(t, err, ErrInvalidClientSpec)

			var specErr *ClientSpecError
			require.ErrorAs(t, err, &specErr)
			require.Equal(t, tt.field, specErr.Field)
		})
	}

	n, err := e.registry.Count(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRegisterAcceptsBoundaryValues(t *testing.T) {
	e := newEnv(t)
	spec := svcSpec()
	spec.AccessTokenTTLSeconds = intPtr(86400)
	spec.ContactEmail = "ops@example.com"
	spec.Description = strings.Repeat("x", 1024)
	spec.Scopes = []string{"read:data", "read:data", "write:reports"}

	rc := e.register(t, spec)
	require.Equal(t, []string{"read:data", "write:reports"}, rc.Client.Scopes)
	require.Equal(t, MaxTokenTTL, rc.Client.AccessTokenTTL)
}

func TestLookupListAndSecret(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a := e.register(t, svcSpec())
	other := svcSpec()
	other.TenantID = "t2"
	e.register(t, other)

	got, err := e.registry.Lookup(ctx, a.Client.ID)
	require.NoError(t, err)
	require.Equal(t, "t1", got.TenantID)
	require.Empty(t, got.SecretHash)

	_, err = e.registry.Lookup(ctx, "nope")
	require.ErrorIs(t, err, ErrClientNotFound)

	all, err := e.registry.List(ctx, store.ClientFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, c := range all {
		require.Empty(t, c.SecretHash)
	}

	t1, err := e.registry.List(ctx, store.ClientFilter{TenantID: "t1"})
	require.NoError(t, err)
	require.Len(t, t1, 1)
	require.Equal(t, a.Client.ID, t1[0].ID)

	require.ErrorIs(t, e.registry.Secret(ctx, a.Client.ID), ErrSecretNotRetrievable)
	require.ErrorIs(t, e.registry.Secret(ctx, "nope"), ErrClientNotFound)
}

func TestDeactivateBlocksIssuance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	rc := e.register(t, svcSpec())

	c, err := e.registry.Deactivate(ctx, rc.Client.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ClientDeprecated, c.Status)

	again, err := e.registry.Deactivate(ctx, rc.Client.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ClientDeprecated, again.Status)

	_, err = e.validator.Validate(ctx, rc.Client.ID, rc.PlaintextSecret, "read:data")
	require.ErrorIs(t, err, ErrInvalidClient)

	_, err = e.registry.Deactivate(ctx, "nope")
	require.ErrorIs(t, err, ErrClientNotFound)
}

func TestSeedIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	seeds := []SeedClient{{ID: "demo-client", Secret: "demo-secret", Spec: svcSpec()}}

	n, err := e.registry.Seed(ctx, seeds)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = e.registry.Seed(ctx, seeds)
	require.NoError(t, err)
	require.Zero(t, n)

	grant, err := e.validator.Validate(ctx, "demo-client", "demo-secret", "read:data")
	require.NoError(t, err)
	require.Equal(t, "t1", grant.TenantID)

	_, err = e.registry.Seed(ctx, []SeedClient{{ID: "x", Spec: svcSpec()}})
	require.ErrorIs(t, err, ErrInvalidClientSpec)
}

func TestSeedHonoursStatus(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	n, err := e.registry.Seed(ctx, []SeedClient{{
		ID: "paused", Secret: "paused-secret", Spec: svcSpec(), Status: domain.ClientSuspended,
	}})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	c, err := e.registry.Lookup(ctx, "paused")
	require.NoError(t, err)
	require.Equal(t, domain.ClientSuspended, c.Status)

	_, err = e.validator.Validate(ctx, "paused", "paused-secret", "read:data")
	require.ErrorIs(t, err, ErrInvalidClient)

	suspended, err := e.registry.List(ctx, store.ClientFilter{Status: domain.ClientSuspended})
	require.NoError(t, err)
	require.Len(t, suspended, 1)

	_, err = e.registry.Seed(ctx, []SeedClient{{
		ID: "odd", Secret: "s", Spec: svcSpec(), Status: domain.ClientStatus("PAUSED"),
	}})
	require.ErrorIs(t, err, ErrInvalidClientSpec)
	var specErr *ClientSpecError
	require.ErrorAs(t, err, &specErr)
	require.Equal(t, "status", specErr.Field)
}
