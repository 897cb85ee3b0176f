package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/metrics"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// TokenHandler serves POST /oauth2/token.
// Accepts application/x-www-form-urlencoded per RFC 6749.
type TokenHandler struct {
	TokenService *service.TokenService
	Metrics      metrics.Recorder
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Endpoint
//	@Description	Issues a signed JWT access token for the client_credentials grant.
//	@Description	Clients authenticate with client_secret_post (form fields) or client_secret_basic (HTTP Basic).
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type		formData	string					true	"Grant type"	Enums(client_credentials)
//	@Param			client_id		formData	string					false	"Client identifier (client_secret_post)"
//	@Param			client_secret	formData	string					false	"Client secret (client_secret_post)"
//	@Param			scope			formData	string					false	"Space or comma separated scopes; empty requests every granted scope"
//	@Success		200				{object}	authsdk.TokenResponse	"access_token, token_type, expires_in, scope, tenant_id"
//	@Failure		400				{object}	authsdk.ErrorResponse	"invalid_request, invalid_scope, unsupported_grant_type"
//	@Failure		401				{object}	authsdk.ErrorResponse	"invalid_client"
//	@Failure		429				{object}	authsdk.ErrorResponse	"rate_limit_exceeded"
//	@Failure		500				{object}	authsdk.ErrorResponse	"server_error"
//	@Failure		503				{object}	authsdk.ErrorResponse	"temporarily_unavailable"
//	@Header			200				{string}	Cache-Control			"no-store"
//	@Header			200				{string}	Pragma					"no-cache"
//	@Router			/oauth2/token [post]
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		h.reject(w, authsdk.ErrInvalidContentType)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.reject(w, authsdk.ErrInvalidFormBody)
		return
	}

	switch grantType := r.PostForm.Get("grant_type"); grantType {
	case domain.GrantClientCredentials:
		h.handleClientCredentialsGrant(w, r)
	case "":
		h.reject(w, authsdk.ErrInvalidRequest.WithDescription("grant_type is required"))
	default:
		h.reject(w, authsdk.ErrUnsupportedGrantType)
	}
}

func (h *TokenHandler) handleClientCredentialsGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	creds, err := httpx.ParseClientCredentials(r)
	switch {
	case errors.Is(err, httpx.ErrNoClientCredentials):
		h.reject(w, authsdk.ErrInvalidRequest.WithDescription("client_id is required"))
		return
	case errors.Is(err, httpx.ErrMultipleAuthMethods):
		h.reject(w, authsdk.ErrInvalidRequest.WithDescription("use only one client authentication method"))
		return
	case err != nil:
		h.reject(w, authsdk.ErrInvalidClient)
		return
	}

	tok, err := h.TokenService.ExchangeClientCredentials(ctx, creds.ID, creds.Secret, r.PostForm.Get("scope"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidClient):
			if creds.Method == httpx.AuthMethodSecretBasic {
				w.Header().Set("WWW-Authenticate", `Basic realm="tollgate"`)
			}
			authsdk.ErrInvalidClient.WriteError(w)
		case errors.Is(err, service.ErrInvalidScope):
			authsdk.ErrInvalidScope.WriteError(w)
		case errors.Is(err, service.ErrNoActiveKey):
			authsdk.ErrTemporarilyUnavailable.WriteError(w)
		default:
			log.Error("client_credentials grant failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   tok.ExpiresIn,
		Scope:       tok.Scope,
		TenantID:    tok.TenantID,
	})
}

// reject writes a request-level error that never reached the token service.
func (h *TokenHandler) reject(w http.ResponseWriter, e *authsdk.OAuth2Error) {
	if h.Metrics != nil {
		h.Metrics.RecordTokenRejected(e.Code)
	}
	e.WriteError(w)
}
