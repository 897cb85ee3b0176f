package httpx

import (
	"crypto/subtle"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// TokenVerifier verifies a bearer access token.
type TokenVerifier interface {
	Verify(token string, now time.Time) (*jwtx.Claims, error)
}

// AdminAuthConfig configures RequireAdmin.
type AdminAuthConfig struct {
	// StaticToken is the shared operator token. Empty disables admin auth.
	StaticToken string

	// Verifier and Scope optionally admit access tokens carrying Scope.
	Verifier TokenVerifier
	Scope    string

	Now func() time.Time
}

// RequireAdmin guards operator endpoints with a bearer token. With no static
// token configured every request passes.
func RequireAdmin(cfg AdminAuthConfig) Middleware {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return func(next http.Handler) http.Handler {
		if cfg.StaticToken == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			raw, ok := BearerToken(r)
			if !ok {
				writeBearerError(w, http.StatusUnauthorized, "invalid_token", "missing bearer token")
				return
			}

			if subtle.ConstantTimeCompare([]byte(raw), []byte(cfg.StaticToken)) == 1 {
				next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), "admin-token", nil)))
				return
			}

			if cfg.Verifier != nil && cfg.Scope != "" {
				claims, err := cfg.Verifier.Verify(raw, cfg.Now())
				if err == nil {
					if !slices.Contains(claims.Scopes(), cfg.Scope) {
						writeBearerError(w, http.StatusForbidden, "insufficient_scope", "requires scope "+cfg.Scope)
						return
					}
					next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), claims.ClientID, claims)))
					return
				}
				log.Debug("admin bearer rejected", "err", err)
			}

			writeBearerError(w, http.StatusUnauthorized, "invalid_token", "bearer token not accepted")
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RFC 6750 section 3 error response.
func writeBearerError(w http.ResponseWriter, code int, errCode, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="`+errCode+`", error_description="`+desc+`"`)
	WriteError(w, code, errCode, desc)
}
