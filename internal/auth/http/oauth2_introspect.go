package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
)

// IntrospectHandler serves POST /oauth2/introspect following RFC 7662.
type IntrospectHandler struct {
	Introspector *service.Introspector
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Introspection Endpoint
//	@Description	Reports whether an access token is active. Tokens that fail any check are reported as {"active": false}.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			token			formData	string							true	"The token to introspect"
//	@Param			token_type_hint	formData	string							false	"Advisory only; every token is checked as an access token"
//	@Success		200				{object}	authsdk.IntrospectionResponse	"Token introspection result"
//	@Failure		400				{object}	authsdk.ErrorResponse			"invalid_request"
//	@Header			200				{string}	Cache-Control					"no-store"
//	@Router			/oauth2/introspect [post]
func (h *IntrospectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		authsdk.ErrInvalidContentType.WriteError(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	token := r.PostForm.Get("token")
	if token == "" {
		authsdk.ErrInvalidRequest.WithDescription("token is required").WriteError(w)
		return
	}

	// token_type_hint is advisory (RFC 7662 section 2.1). Only access tokens
	// exist here, so every hint resolves to the same lookup.
	res := h.Introspector.Introspect(r.Context(), token)
	httpx.WriteJSON(w, http.StatusOK, authsdk.IntrospectionResponse{
		Active:    res.Active,
		ClientID:  res.ClientID,
		TenantID:  res.TenantID,
		Scope:     res.Scope,
		Exp:       res.Exp,
		Iat:       res.Iat,
		Sub:       res.Sub,
		Iss:       res.Iss,
		Jti:       res.Jti,
		TokenType: res.TokenType,
	})
}
