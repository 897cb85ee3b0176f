package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	httpapi "github.com/aussiebroadwan/tollgate/internal/auth/http"
	"github.com/aussiebroadwan/tollgate/internal/auth/metrics"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer     = "https://auth.test"
	testAdminToken = "admin-token"
)

type server struct {
	handler  http.Handler
	store    *sqlite.Store
	keys     *jwtx.KeyManager
	metrics  *metrics.Metrics
	registry *service.Registry
}

type option func(*httpapi.RouterConfig)

func withAdminToken(tok string) option {
	return func(c *httpapi.RouterConfig) { c.AdminToken = tok }
}

func withRateLimits(l httpx.RateLimits) option {
	return func(c *httpapi.RouterConfig) { c.RateLimits = l }
}

func newServer(t *testing.T, opts ...option) *server {
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

	km, err := jwtx.NewKeyManager(ctx, jwtx.Options{Algorithm: jwtx.AlgorithmEdDSA, Retention: time.Hour})
	require.NoError(t, err)

	m := metrics.New()
	verifier := jwtx.NewVerifier(km, jwtx.VerifyOptions{Issuer: testIssuer})

	cfg := httpapi.RouterConfig{
		Keys:           km,
		Verifier:       verifier,
		Issuer:         testIssuer,
		PublicURL:      testIssuer,
		BuildVersion:   "test",
		DefaultTTL:     service.DefaultTokenTTL,
		Store:          st,
		Logger:         slogx.Discard(),
		Metrics:        m,
		MetricsHandler: m.Handler(),
	}
	for _, o := range opts {
		o(&cfg)
	}

	registry := &service.Registry{Store: st, Hasher: hasher, Metrics: m}
	router := httpapi.NewRouter(cfg)
	router.Registry = registry
	router.TokenService = &service.TokenService{
		Validator: &service.Validator{Store: st, Hasher: hasher},
		Issuer:    &service.Issuer{Keys: km, IssuerURL: testIssuer, DefaultTTL: service.DefaultTokenTTL},
		Store:     st,
		Metrics:   m,
	}
	router.Introspector = &service.Introspector{Verifier: verifier, Metrics: m}
	router.KeyRotationService = &service.KeyRotationService{Keys: km, Metrics: m}
	router.ApplyRoutes()

	return &server{handler: router, store: st, keys: km, metrics: m, registry: registry}
}

func (s *server) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *server) postForm(t *testing.T, path string, form url.Values, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, m := range mutate {
		m(req)
	}
	return s.do(t, req)
}

func (s *server) adminRequest(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	return s.do(t, req)
}

// register creates a client through the API and returns its id and secret.
func (s *server) register(t *testing.T, body string) (string, string) {
	t.Helper()
	rec := s.adminRequest(t, http.MethodPost, "/api/v1/clients", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out struct {
		ClientID     string `json:"clientId"`
		ClientSecret string `json:"clientSecret"`
	}
	decode(t, rec, &out)
	return out.ClientID, out.ClientSecret
}

func (s *server) issue(t *testing.T, id, secret, scope string) string {
	t.Helper()
	rec := s.postForm(t, "/oauth2/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {id},
		"client_secret": {secret},
		"scope":         {scope},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	decode(t, rec, &tok)
	return tok.AccessToken
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httpx.ErrorBody
	decode(t, rec, &body)
	return body.Error
}

const svcClient = `{"clientName":"svc","tenantId":"t1","scopes":["read:data"],"grantTypes":["client_credentials"]}`
