package http_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestRegisterClient(t *testing.T) {
	s := newServer(t)

	rec := s.adminRequest(t, http.MethodPost, "/api/v1/clients",
		`{"clientName":"Billing Service","tenantId":"t1","scopes":["read:data","read:data","write:reports"],"accessTokenValiditySeconds":600}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out authsdk.RegisterClientResponse
	decode(t, rec, &out)
	require.True(t, strings.HasPrefix(out.ClientID, "billing-service-"))
	require.NotEmpty(t, out.ClientSecret)
	require.Equal(t, []string{"read:data", "write:reports"}, out.Scopes)
	require.Equal(t, []string{"client_credentials"}, out.GrantTypes)
	require.Equal(t, 600, out.AccessTokenValiditySeconds)
	require.Equal(t, "ACTIVE", out.Status)

	// The secret is never echoed again.
	rec = s.adminRequest(t, http.MethodGet, "/api/v1/clients/"+out.ClientID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), out.ClientSecret)

	var c authsdk.Client
	decode(t, rec, &c)
	require.Equal(t, "Billing Service", c.ClientName)
	require.Equal(t, 600, c.AccessTokenValiditySeconds)
}

func TestRegisterClientValidation(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"malformed json", `{"clientName":`, authsdk.ErrorCodeInvalidRequest},
		{"unknown field", `{"clientName":"svc","tenantId":"t1","scopes":["a"],"admin":true}`, authsdk.ErrorCodeInvalidRequest},
		{"missing name", `{"tenantId":"t1","scopes":["read:data"]}`, authsdk.ErrorCodeInvalidClientMetadata},
		{"missing tenant", `{"clientName":"svc","scopes":["read:data"]}`, authsdk.ErrorCodeInvalidClientMetadata},
		{"no scopes", `{"clientName":"svc","tenantId":"t1","scopes":[]}`, authsdk.ErrorCodeInvalidClientMetadata},
		{"bad scope", `{"clientName":"svc","tenantId":"t1","scopes":["read data"]}`, authsdk.ErrorCodeInvalidClientMetadata},
		{"unsupported grant", `{"clientName":"svc","tenantId":"t1","scopes":["a"],"grantTypes":["password"]}`, authsdk.ErrorCodeInvalidClientMetadata},
		{"ttl too long", `{"clientName":"svc","tenantId":"t1","scopes":["a"],"accessTokenValiditySeconds":86401}`, authsdk.ErrorCodeInvalidClientMetadata},
		{"zero ttl", `{"clientName":"svc","tenantId":"t1","scopes":["a"],"accessTokenValiditySeconds":0}`, authsdk.ErrorCodeInvalidClientMetadata},
		{"wrapping ttl", `{"clientName":"svc","tenantId":"t1","scopes":["a"],"accessTokenValiditySeconds":18446747674}`, authsdk.ErrorCodeInvalidClientMetadata},
		{"extra grant", `{"clientName":"svc","tenantId":"t1","scopes":["a"],"grantTypes":["client_credentials","refresh_token"]}`, authsdk.ErrorCodeInvalidClientMetadata},
		{"bad email", `{"clientName":"svc","tenantId":"t1","scopes":["a"],"contactEmail":"nope"}`, authsdk.ErrorCodeInvalidClientMetadata},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.adminRequest(t, http.MethodPost, "/api/v1/clients", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			require.Equal(t, tt.wantCode, errorCode(t, rec))
		})
	}
}

func TestListClients(t *testing.T) {
	s := newServer(t)
	a, _ := s.register(t, svcClient)
	s.register(t, `{"clientName":"other","tenantId":"t2","scopes":["read:invoices"]}`)

	rec := s.adminRequest(t, http.MethodGet, "/api/v1/clients", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all authsdk.ListClientsResponse
	decode(t, rec, &all)
	require.Equal(t, 2, all.TotalCount)
	require.Len(t, all.Clients, 2)

	rec = s.adminRequest(t, http.MethodGet, "/api/v1/clients?tenantId=t1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var t1 authsdk.ListClientsResponse
	decode(t, rec, &t1)
	require.Equal(t, 1, t1.TotalCount)
	require.Equal(t, a, t1.Clients[0].ClientID)

	rec = s.adminRequest(t, http.MethodGet, "/api/clients?tenant_id=t2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"client_name":"other"`)
	var summaries authsdk.ClientSummaryList
	decode(t, rec, &summaries)
	require.Equal(t, 1, summaries.Total)
	require.Equal(t, "t2", summaries.Clients[0].TenantID)
	require.Nil(t, summaries.Clients[0].LastUsedAt)
}

func TestListClientsShowsLastUsed(t *testing.T) {
	s := newServer(t)
	id, secret := s.register(t, svcClient)
	s.issue(t, id, secret, "")

	rec := s.adminRequest(t, http.MethodGet, "/api/clients", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries authsdk.ClientSummaryList
	decode(t, rec, &summaries)
	require.Len(t, summaries.Clients, 1)
	require.NotNil(t, summaries.Clients[0].LastUsedAt)
}

func TestClientLookupErrors(t *testing.T) {
	s := newServer(t)
	id, _ := s.register(t, svcClient)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantCode   string
	}{
		{"get unknown", http.MethodGet, "/api/v1/clients/ghost", http.StatusNotFound, authsdk.ErrorCodeNotFound},
		{"delete unknown", http.MethodDelete, "/api/v1/clients/ghost", http.StatusNotFound, authsdk.ErrorCodeNotFound},
		{"secret unknown", http.MethodGet, "/api/v1/clients/ghost/secret", http.StatusNotFound, authsdk.ErrorCodeNotFound},
		{"secret known", http.MethodGet, "/api/v1/clients/" + url.PathEscape(id) + "/secret", http.StatusGone, authsdk.ErrorCodeSecretNotRetrievable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.adminRequest(t, tt.method, tt.path, "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			require.Equal(t, tt.wantCode, errorCode(t, rec))
		})
	}
}

func TestDeactivateClientIsIdempotent(t *testing.T) {
	s := newServer(t)
	id, _ := s.register(t, svcClient)

	for range 2 {
		rec := s.adminRequest(t, http.MethodDelete, "/api/v1/clients/"+id, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var c authsdk.Client
		decode(t, rec, &c)
		require.Equal(t, "DEPRECATED", c.Status)
	}
}

func TestListClientsByStatus(t *testing.T) {
	s := newServer(t)
	active, _ := s.register(t, svcClient)
	retired, _ := s.register(t, `{"clientName":"old","tenantId":"t1","scopes":["read:data"]}`)

	rec := s.adminRequest(t, http.MethodDelete, "/api/v1/clients/"+retired, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.adminRequest(t, http.MethodGet, "/api/v1/clients?status=DEPRECATED", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var deprecated authsdk.ListClientsResponse
	decode(t, rec, &deprecated)
	require.Equal(t, 1, deprecated.TotalCount)
	require.Equal(t, retired, deprecated.Clients[0].ClientID)

	rec = s.adminRequest(t, http.MethodGet, "/api/clients?tenant_id=t1&status=active", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summaries authsdk.ClientSummaryList
	decode(t, rec, &summaries)
	require.Equal(t, 1, summaries.Total)
	require.Equal(t, active, summaries.Clients[0].ClientID)

	rec = s.adminRequest(t, http.MethodGet, "/api/v1/clients?status=SUSPENDED", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"totalCount":0`)

	for _, path := range []string{"/api/v1/clients?status=bogus", "/api/clients?status=bogus"} {
		rec = s.adminRequest(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, path)
		require.Equal(t, authsdk.ErrorCodeInvalidRequest, errorCode(t, rec))
	}
}
