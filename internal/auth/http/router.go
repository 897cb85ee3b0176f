package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/metrics"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"

	_ "github.com/aussiebroadwan/tollgate/api/tollgate" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// AdminScope is the access token scope accepted on admin endpoints in
// addition to the static admin token.
const AdminScope = "tollgate:admin"

// RouterConfig carries the shared dependencies of every handler.
type RouterConfig struct {
	Keys         *jwtx.KeyManager
	Verifier     *jwtx.Verifier
	Issuer       string
	PublicURL    string
	BuildVersion string
	DefaultTTL   time.Duration
	Store        store.Store
	Logger       *slog.Logger

	// Metrics is optional. MetricsHandler, when set, is mounted at /metrics.
	Metrics        metrics.Recorder
	MetricsHandler http.Handler

	// AdminToken protects registration, client reads and key management.
	// Empty leaves them open.
	AdminToken string

	RateLimits httpx.RateLimits
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware
	handler     http.Handler

	cfg       RouterConfig
	startTime time.Time

	Registry           *service.Registry
	TokenService       *service.TokenService
	Introspector       *service.Introspector
	KeyRotationService *service.KeyRotationService
}

func NewRouter(cfg RouterConfig) *Router {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := &Router{
		Mux:       http.NewServeMux(),
		cfg:       cfg,
		startTime: time.Now(),
	}

	// Metrics must sit directly on the mux to see the matched pattern.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(cfg.Logger),
		metrics.HTTPMiddleware(cfg.Metrics),
	}
	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerWellKnown()
	r.registerClients()
	r.registerKeyRotation()
	r.registerSystem()

	r.Mux.Handle("GET /swagger/", httpSwagger.Handler())

	r.handler = httpx.Chain(r.Mux, r.middlewares...)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title						Tollgate Authorization Server API
//	@version					0.1.0
//	@description				OAuth2 client_credentials authorization server. Access tokens are JWTs signed with the active key
//	@description				published at /.well-known/jwks.json (EdDSA by default, ES256 or RS256 when configured).
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/tollgate
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Admin token or an access token with the tollgate:admin scope. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if r.handler == nil {
		r.ApplyRoutes()
	}
	r.handler.ServeHTTP(w, req)
}

func (r *Router) admin() httpx.Middleware {
	return httpx.RequireAdmin(httpx.AdminAuthConfig{
		StaticToken: r.cfg.AdminToken,
		Verifier:    r.cfg.Verifier,
		Scope:       AdminScope,
	})
}

func (r *Router) registerOAuth2() {
	limits := r.cfg.RateLimits

	// POST /token - moderate per IP first, then strict per client_id
	tokenHandler := &TokenHandler{TokenService: r.TokenService, Metrics: r.cfg.Metrics}
	r.Mux.Handle("POST /oauth2/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIP(limits.Moderate),
			httpx.RateLimitByClient(limits.Strict),
		),
	)

	introspectHandler := &IntrospectHandler{Introspector: r.Introspector}
	r.Mux.Handle("POST /oauth2/introspect",
		httpx.Chain(introspectHandler,
			httpx.RateLimitByIP(limits.Lenient),
		),
	)
}

func (r *Router) registerWellKnown() {
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.cfg.Keys),
			httpx.RateLimitByIP(r.cfg.RateLimits.Public),
		),
	)
	r.Mux.Handle("GET /.well-known/oauth-authorization-server",
		httpx.Chain(ServerMetadataHandler(r.cfg.Issuer, r.cfg.PublicURL, r.cfg.Keys),
			httpx.RateLimitByIP(r.cfg.RateLimits.Public),
		),
	)
}

func (r *Router) registerClients() {
	h := &ClientsHandler{
		Registry:   r.Registry,
		DefaultTTL: int(r.cfg.DefaultTTL.Seconds()),
	}
	limit := httpx.RateLimitByIP(r.cfg.RateLimits.Moderate)

	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn, limit, r.admin())
	}

	r.Mux.Handle("POST /api/v1/clients", secured(h.HandleRegister))
	r.Mux.Handle("GET /api/v1/clients", secured(h.HandleList))
	r.Mux.Handle("GET /api/v1/clients/{clientId}", secured(h.HandleGet))
	r.Mux.Handle("GET /api/v1/clients/{clientId}/secret", secured(h.HandleSecret))
	r.Mux.Handle("DELETE /api/v1/clients/{clientId}", secured(h.HandleDeactivate))
	r.Mux.Handle("GET /api/clients", secured(h.HandleListSummaries))
}

func (r *Router) registerKeyRotation() {
	h := &KeyRotationHandler{KeyRotationService: r.KeyRotationService}
	limit := httpx.RateLimitByIP(r.cfg.RateLimits.Moderate)

	r.Mux.Handle("GET /api/v1/keys", httpx.Chain(http.HandlerFunc(h.HandleListKeys), limit, r.admin()))
	r.Mux.Handle("POST /api/v1/keys/rotate", httpx.Chain(http.HandlerFunc(h.HandleRotate), limit, r.admin()))
	r.Mux.Handle("POST /api/v1/keys/{kid}/retire", httpx.Chain(http.HandlerFunc(h.HandleRetireKey), limit, r.admin()))
}

func (r *Router) registerSystem() {
	// Monitoring systems poll these frequently
	lenient := httpx.RateLimitByIP(r.cfg.RateLimits.Lenient)

	r.Mux.Handle("GET /api/health",
		httpx.Chain(HealthHandler(r.startTime, r.cfg.BuildVersion, r.cfg.Store, r.Registry, r.cfg.Keys), lenient),
	)
	r.Mux.Handle("GET /api/health/ready",
		httpx.Chain(ReadyHandler(r.startTime, r.cfg.BuildVersion, r.cfg.Store, r.cfg.Keys), lenient),
	)
	r.Mux.Handle("GET /api/info",
		httpx.Chain(InfoHandler(r.cfg.BuildVersion, r.cfg.MetricsHandler != nil), lenient),
	)

	if r.cfg.MetricsHandler != nil {
		r.Mux.Handle("GET /metrics", r.cfg.MetricsHandler)
	}
}
