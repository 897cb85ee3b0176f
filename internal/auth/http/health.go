package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

// HealthHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Returns 200 while the process is serving, with uptime, version, database state and client count.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse
//	@Router			/api/health [get]
func HealthHandler(startTime time.Time, version string, st store.Store, registry *service.Registry, keys *jwtx.KeyManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := authsdk.HealthResponse{
			Status:   "ok",
			Version:  version,
			Uptime:   time.Since(startTime).Round(time.Second).String(),
			Database: "ok",
			Checks:   &authsdk.HealthChecks{Database: "ok", Signer: "ok"},
		}

		if err := st.Ping(r.Context()); err != nil {
			resp.Database = "error"
			resp.Checks.Database = "error"
		} else if n, err := registry.Count(r.Context()); err == nil {
			resp.TotalClients = n
		}
		if _, err := keys.SigningKey(); err != nil {
			resp.Checks.Signer = "no active signing key"
		}
		httpx.WriteJSON(w, http.StatusOK, resp)
	}
}

// ReadyHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Returns 503 when the database is unreachable or no signing key is active.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse
//	@Failure		503	{object}	authsdk.HealthResponse
//	@Router			/api/health/ready [get]
func ReadyHandler(startTime time.Time, version string, st store.Store, keys *jwtx.KeyManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{Database: "ok", Signer: "ok"}
		status, code := "ok", http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
		}

		if _, err := keys.SigningKey(); errors.Is(err, jwtx.ErrNoActiveKey) {
			checks.Signer = "error: no active signing key"
			status, code = "degraded", http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, authsdk.HealthResponse{
			Status:   status,
			Version:  version,
			Uptime:   time.Since(startTime).Round(time.Second).String(),
			Database: checks.Database,
			Checks:   checks,
		})
	}
}

// InfoHandler godoc
//
//	@Summary		Service information
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.InfoResponse
//	@Router			/api/info [get]
func InfoHandler(version string, metricsEnabled bool) http.HandlerFunc {
	features := []string{
		"client_credentials",
		"client_secret_basic",
		"client_secret_post",
		"token_introspection",
		"jwks",
		"key_rotation",
		"rfc8414_metadata",
	}
	endpoints := map[string]string{
		"health":        "/api/health",
		"ready":         "/api/health/ready",
		"clients":       "/api/v1/clients",
		"token":         "/oauth2/token",
		"introspection": "/oauth2/introspect",
		"jwks":          "/.well-known/jwks.json",
		"metadata":      "/.well-known/oauth-authorization-server",
		"keys":          "/api/v1/keys",
		"docs":          "/swagger/",
	}
	if metricsEnabled {
		features = append(features, "prometheus_metrics")
		endpoints["metrics"] = "/metrics"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.InfoResponse{
			Name:        "tollgate",
			Description: "OAuth2 client_credentials authorization server",
			Version:     version,
			Features:    features,
			Endpoints:   endpoints,
		})
	}
}
