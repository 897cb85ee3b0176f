package authsdk_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpapi "github.com/aussiebroadwan/tollgate/internal/auth/http"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const adminToken = "sdk-admin"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.NewStore(sqlite.MemoryDSN)
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	hasher, err := cryptox.NewSecretHasherWithParams("pepper", cryptox.Argon2Params{
		Memory: 1024, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16,
	})
	require.NoError(t, err)

	km, err := jwtx.NewKeyManager(ctx, jwtx.Options{Algorithm: jwtx.AlgorithmES256, Retention: time.Hour})
	require.NoError(t, err)

	srv := httptest.NewUnstartedServer(nil)
	issuer := "http://" + srv.Listener.Addr().String()
	verifier := jwtx.NewVerifier(km, jwtx.VerifyOptions{Issuer: issuer})

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Keys:         km,
		Verifier:     verifier,
		Issuer:       issuer,
		PublicURL:    issuer,
		BuildVersion: "sdk-test",
		DefaultTTL:   service.DefaultTokenTTL,
		Store:        st,
		Logger:       slogx.Discard(),
		AdminToken:   adminToken,
	})
	router.Registry = &service.Registry{Store: st, Hasher: hasher}
	router.TokenService = &service.TokenService{
		Validator: &service.Validator{Store: st, Hasher: hasher},
		Issuer:    &service.Issuer{Keys: km, IssuerURL: issuer, DefaultTTL: service.DefaultTokenTTL},
		Store:     st,
	}
	router.Introspector = &service.Introspector{Verifier: verifier}
	router.KeyRotationService = &service.KeyRotationService{Keys: km}
	router.ApplyRoutes()

	srv.Config.Handler = router
	srv.Start()
	t.Cleanup(srv.Close)
	return srv
}

func TestSDKClientCredentialsFlow(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	admin := authsdk.NewSDKClient(srv.URL).WithAdminToken(adminToken)
	public := authsdk.NewSDKClient(srv.URL)

	reg, err := admin.RegisterClient(ctx, authsdk.RegisterClientRequest{
		ClientName: "svc",
		TenantID:   "t1",
		Scopes:     []string{"read:data"},
		GrantTypes: []string{"client_credentials"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, reg.ClientSecret)

	tok, err := public.ClientCredentialsGrant(ctx, reg.ClientID, reg.ClientSecret, []string{"read:data"})
	require.NoError(t, err)
	require.Equal(t, "t1", tok.TenantID)
	require.Equal(t, 3600, tok.ExpiresIn)

	basic, err := public.ClientCredentialsGrantBasic(ctx, reg.ClientID, reg.ClientSecret, nil)
	require.NoError(t, err)
	require.Equal(t, "read:data", basic.Scope)

	res, err := public.Introspect(ctx, tok.AccessToken)
	require.NoError(t, err)
	require.True(t, res.Active)
	require.Equal(t, reg.ClientID, res.ClientID)

	md, err := public.GetServerMetadata(ctx)
	require.NoError(t, err)

	claims, err := public.VerifyToken(ctx, tok.AccessToken, md.Issuer)
	require.NoError(t, err)
	require.Equal(t, reg.ClientID, claims.ClientID)
	require.Equal(t, "t1", claims.TenantID)
}

func TestSDKErrors(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	admin := authsdk.NewSDKClient(srv.URL).WithAdminToken(adminToken)
	public := authsdk.NewSDKClient(srv.URL)

	reg, err := admin.RegisterClient(ctx, authsdk.RegisterClientRequest{
		ClientName: "svc", TenantID: "t1", Scopes: []string{"read:data"},
	})
	require.NoError(t, err)

	_, err = public.ClientCredentialsGrant(ctx, reg.ClientID, "wrong", nil)
	require.ErrorIs(t, err, authsdk.ErrInvalidClient)
	require.Equal(t, http.StatusUnauthorized, authsdk.StatusCode(err))

	_, err = public.ClientCredentialsGrant(ctx, reg.ClientID, reg.ClientSecret, []string{"write:reports"})
	require.ErrorIs(t, err, authsdk.ErrInvalidScope)

	_, err = public.RegisterClient(ctx, authsdk.RegisterClientRequest{ClientName: "x", TenantID: "t", Scopes: []string{"a"}})
	require.Equal(t, http.StatusUnauthorized, authsdk.StatusCode(err))

	_, err = admin.RegisterClient(ctx, authsdk.RegisterClientRequest{ClientName: "x", TenantID: "t"})
	require.ErrorIs(t, err, authsdk.ErrInvalidClientMetadata)

	err = admin.GetClientSecret(ctx, reg.ClientID)
	require.ErrorIs(t, err, authsdk.ErrSecretNotRetrievable)

	_, err = admin.GetClient(ctx, "ghost")
	require.Equal(t, http.StatusNotFound, authsdk.StatusCode(err))
}

func TestSDKAdminOperations(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	admin := authsdk.NewSDKClient(srv.URL).WithAdminToken(adminToken)

	reg, err := admin.RegisterClient(ctx, authsdk.RegisterClientRequest{
		ClientName: "svc", TenantID: "t1", Scopes: []string{"read:data"},
	})
	require.NoError(t, err)

	list, err := admin.ListClients(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, 1, list.TotalCount)

	summaries, err := admin.ListClientSummaries(ctx, "")
	require.NoError(t, err)
	require.Equal(t, 1, summaries.Total)

	c, err := admin.DeactivateClient(ctx, reg.ClientID)
	require.NoError(t, err)
	require.Equal(t, "DEPRECATED", c.Status)

	keys, err := admin.ListKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys.Keys, 1)

	rot, err := admin.RotateKey(ctx)
	require.NoError(t, err)
	require.NotNil(t, rot.Retired)
	require.Equal(t, keys.Keys[0].Kid, rot.Retired.Kid)

	retired, err := admin.RetireKey(ctx, rot.New.Kid)
	require.NoError(t, err)
	require.Equal(t, "retired", retired.State)

	_, err = admin.GetReadiness(ctx)
	require.Equal(t, http.StatusServiceUnavailable, authsdk.StatusCode(err))

	health, err := admin.GetHealth(ctx)
	require.NoError(t, err)
	require.Equal(t, "sdk-test", health.Version)

	jwks, err := admin.GetJWKS(ctx)
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 2)

	info, err := admin.GetInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, "tollgate", info.Name)
}
