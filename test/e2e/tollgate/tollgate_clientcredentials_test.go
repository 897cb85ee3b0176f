package tollgate_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestClientCredentialsFlow runs the full flow:
// 1. Register svc in t1 with read:data
// 2. Exchange credentials with client_secret_post and client_secret_basic
// 3. Introspect the token
// 4. Verify the token offline against the published JWKS
func TestClientCredentialsFlow(t *testing.T) {
	baseURL, cleanup := setupTollgate(t)
	defer cleanup()

	admin := authsdk.NewSDKClient(baseURL).WithAdminToken(adminToken)
	client := authsdk.NewSDKClient(baseURL)

	reg := registerClient(t, admin, "svc", "read:data")

	tok, err := client.ClientCredentialsGrant(t.Context(), reg.ClientID, reg.ClientSecret, []string{"read:data"})
	require.NoError(t, err)
	assertTokenResponse(t, tok)
	require.Equal(t, 3600, tok.ExpiresIn)
	require.Equal(t, "read:data", tok.Scope)

	basic, err := client.ClientCredentialsGrantBasic(t.Context(), reg.ClientID, reg.ClientSecret, nil)
	require.NoError(t, err)
	assertTokenResponse(t, basic)

	res, err := client.Introspect(t.Context(), tok.AccessToken)
	require.NoError(t, err)
	require.True(t, res.Active)
	require.Equal(t, reg.ClientID, res.ClientID)
	require.Equal(t, tenantID, res.TenantID)
	require.Equal(t, "read:data", res.Scope)

	claims, err := client.VerifyToken(t.Context(), tok.AccessToken, issuer)
	require.NoError(t, err)
	require.Equal(t, reg.ClientID, claims.ClientID)
}

// TestClientCredentialsRejections covers the error paths a client sees.
func TestClientCredentialsRejections(t *testing.T) {
	baseURL, cleanup := setupTollgate(t)
	defer cleanup()

	admin := authsdk.NewSDKClient(baseURL).WithAdminToken(adminToken)
	client := authsdk.NewSDKClient(baseURL)

	reg := registerClient(t, admin, "svc", "read:data")

	_, err := client.ClientCredentialsGrant(t.Context(), reg.ClientID, reg.ClientSecret, []string{"write:reports"})
	require.ErrorIs(t, err, authsdk.ErrInvalidScope)

	_, err = client.ClientCredentialsGrant(t.Context(), reg.ClientID, "wrong-secret", nil)
	require.ErrorIs(t, err, authsdk.ErrInvalidClient)

	_, err = client.ClientCredentialsGrant(t.Context(), "unknown-client", reg.ClientSecret, nil)
	require.ErrorIs(t, err, authsdk.ErrInvalidClient)

	_, err = admin.DeactivateClient(t.Context(), reg.ClientID)
	require.NoError(t, err)
	_, err = client.ClientCredentialsGrant(t.Context(), reg.ClientID, reg.ClientSecret, nil)
	require.ErrorIs(t, err, authsdk.ErrInvalidClient)

	err = admin.GetClientSecret(t.Context(), reg.ClientID)
	assertStatus(t, err, http.StatusGone, "secret lookup")
}

// TestClientRegistrationRequiresAdmin checks the admin guard.
func TestClientRegistrationRequiresAdmin(t *testing.T) {
	baseURL, cleanup := setupTollgate(t)
	defer cleanup()

	anon := authsdk.NewSDKClient(baseURL)
	_, err := anon.RegisterClient(t.Context(), authsdk.RegisterClientRequest{
		ClientName: "svc", TenantID: tenantID, Scopes: []string{"read:data"},
	})
	assertStatus(t, err, http.StatusUnauthorized, "anonymous registration")

	_, err = anon.ListClients(t.Context(), "")
	assertStatus(t, err, http.StatusUnauthorized, "anonymous listing")
}
