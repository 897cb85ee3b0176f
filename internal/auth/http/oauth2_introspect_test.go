package http_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestIntrospectActiveToken(t *testing.T) {
	s := newServer(t)
	id, secret := s.register(t, svcClient)
	token := s.issue(t, id, secret, "read:data")

	rec := s.postForm(t, "/oauth2/introspect", url.Values{"token": {token}})
	require.Equal(t, http.StatusOK, rec.Code)

	var res authsdk.IntrospectionResponse
	decode(t, rec, &res)
	require.True(t, res.Active)
	require.Equal(t, id, res.ClientID)
	require.Equal(t, "t1", res.TenantID)
	require.Equal(t, "read:data", res.Scope)
	require.Equal(t, testIssuer, res.Iss)
	require.Equal(t, "Bearer", res.TokenType)
	require.Greater(t, res.Exp, res.Iat)
}

func TestIntrospectInactive(t *testing.T) {
	s := newServer(t)
	id, secret := s.register(t, svcClient)
	token := s.issue(t, id, secret, "")

	tests := []struct {
		name string
		form url.Values
	}{
		{"garbage", url.Values{"token": {"not-a-jwt"}}},
		{"tampered", url.Values{"token": {token[:len(token)-4] + "AAAA"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.postForm(t, "/oauth2/introspect", tt.form)
			require.Equal(t, http.StatusOK, rec.Code)
			require.JSONEq(t, `{"active":false}`, rec.Body.String())
		})
	}
}

func TestIntrospectIgnoresTokenTypeHint(t *testing.T) {
	s := newServer(t)
	id, secret := s.register(t, svcClient)
	token := s.issue(t, id, secret, "")

	for _, hint := range []string{"access_token", "refresh_token", "something_else"} {
		t.Run(hint, func(t *testing.T) {
			rec := s.postForm(t, "/oauth2/introspect", url.Values{"token": {token}, "token_type_hint": {hint}})
			require.Equal(t, http.StatusOK, rec.Code)

			var res authsdk.IntrospectionResponse
			decode(t, rec, &res)
			require.True(t, res.Active)
			require.Equal(t, id, res.ClientID)
			require.Equal(t, "read:data", res.Scope)
		})
	}
}

func TestIntrospectMissingToken(t *testing.T) {
	s := newServer(t)

	rec := s.postForm(t, "/oauth2/introspect", url.Values{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, authsdk.ErrorCodeInvalidRequest, errorCode(t, rec))
}
