package http

import (
	"encoding/json"
	"net/http"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

// JWKSHandler exposes the JSON Web Key Set: the active key plus retired
// keys still inside their retention window.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify access tokens.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get]
func JWKSHandler(keys *jwtx.KeyManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=60")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(authsdk.JWKSResponse(keys.JWKS()))
	}
}

// ServerMetadataHandler godoc
//
//	@Summary		Authorization server metadata
//	@Description	RFC 8414 discovery document.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.ServerMetadata
//	@Router			/.well-known/oauth-authorization-server [get]
func ServerMetadataHandler(issuer, publicURL string, keys *jwtx.KeyManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authMethods := []string{httpx.AuthMethodSecretBasic, httpx.AuthMethodSecretPost}
		httpx.WriteJSON(w, http.StatusOK, authsdk.ServerMetadata{
			Issuer:                               issuer,
			TokenEndpoint:                        publicURL + "/oauth2/token",
			IntrospectionEndpoint:                publicURL + "/oauth2/introspect",
			JWKSURI:                              publicURL + "/.well-known/jwks.json",
			GrantTypesSupported:                  []string{domain.GrantClientCredentials},
			ResponseTypesSupported:               []string{},
			TokenEndpointAuthMethodsSupported:    authMethods,
			IntrospectionEndpointAuthMethods:     []string{"none"},
			AccessTokenSigningAlgValuesSupported: []string{keys.Algorithm()},
			ServiceDocumentation:                 publicURL + "/swagger/",
		})
	}
}
