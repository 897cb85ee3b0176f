package authsdk

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
)

// ClientCredentialsGrant requests an access token, sending the credentials
// in the form body (client_secret_post). An empty scopes slice asks for
// every scope granted to the client.
func (c *SDKClient) ClientCredentialsGrant(
	ctx context.Context,
	clientID, clientSecret string,
	scopes []string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
	}
	if len(scopes) > 0 {
		data.Set("scope", strings.Join(scopes, " "))
	}
	return c.requestToken(ctx, data, nil)
}

// ClientCredentialsGrantBasic is ClientCredentialsGrant using HTTP Basic
// authentication (client_secret_basic).
func (c *SDKClient) ClientCredentialsGrantBasic(
	ctx context.Context,
	clientID, clientSecret string,
	scopes []string,
) (*TokenResponse, error) {
	data := url.Values{"grant_type": {"client_credentials"}}
	if len(scopes) > 0 {
		data.Set("scope", strings.Join(scopes, " "))
	}

	// RFC 6749 section 2.3.1: both parts are form-encoded before base64.
	creds := url.QueryEscape(clientID) + ":" + url.QueryEscape(clientSecret)
	return c.requestToken(ctx, data, map[string]string{
		"Authorization": "Basic " + base64.StdEncoding.EncodeToString([]byte(creds)),
	})
}

func (c *SDKClient) requestToken(ctx context.Context, data url.Values, headers map[string]string) (*TokenResponse, error) {
	resp, err := c.postForm(ctx, "/oauth2/token", data, headers)
	if err != nil {
		return nil, err
	}

	var tok TokenResponse
	if err := decodeJSON(resp, &tok, http.StatusOK); err != nil {
		return nil, err
	}
	return &tok, nil
}

// Introspect asks the server whether token is active (RFC 7662).
func (c *SDKClient) Introspect(ctx context.Context, token string) (*IntrospectionResponse, error) {
	resp, err := c.postForm(ctx, "/oauth2/introspect", url.Values{"token": {token}}, nil)
	if err != nil {
		return nil, err
	}

	var out IntrospectionResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
