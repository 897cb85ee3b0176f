package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()

	t.Setenv("AUTH_DATABASE_FILE", filepath.Join(dir, "tollgate.db"))
	t.Setenv("AUTH_PEPPER_FILE", filepath.Join(dir, "pepper"))
	t.Setenv("AUTH_ISSUER", "https://auth.test")
	t.Setenv("AUTH_ADMIN_TOKEN", "")
	t.Setenv("LOG_LEVEL", "error")

	return LoadConfig()
}

func TestNewServesRequests(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.SeedFile = writeSeed(t, `
clients:
  - client_id: svc
    client_secret: s3cret
    client_name: svc
    tenant_id: t1
    scopes: [read:data]
`)

	application, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Shutdown() })

	h := application.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var health authsdk.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	require.Equal(t, "ok", health.Status)
	require.Equal(t, 1, health.TotalClients)

	form := "grant_type=client_credentials&client_id=svc&client_secret=s3cret"
	req := httptest.NewRequest(http.MethodPost, "/oauth2/token", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `tollgate_tokens_issued_total{grant_type="client_credentials"} 1`)
}

func TestNewPersistentKeysSurviveRestart(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.KeyStorageMode = KeyStoragePersistent
	t.Setenv("AUTH_MASTER_KEY", "test-master-key")

	first, err := New(cfg)
	require.NoError(t, err)
	kid, err := first.keyManager.Active()
	require.NoError(t, err)
	require.NoError(t, first.Shutdown())

	second, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Shutdown() })

	again, err := second.keyManager.Active()
	require.NoError(t, err)
	require.Equal(t, kid.Kid, again.Kid)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Algorithm = "none"

	_, err := New(cfg)
	require.ErrorContains(t, err, "invalid configuration")
}
