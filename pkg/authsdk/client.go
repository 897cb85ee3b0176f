package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// SDKClient talks to a Tollgate server. It is safe for concurrent use.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// AdminToken is sent as a bearer token on admin endpoints (client
	// registration, deactivation and key management). It may be the
	// server's static admin token or an access token carrying the admin
	// scope. Leave empty when the server runs without admin protection.
	AdminToken string
}

func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithAdminToken returns a copy of c that authenticates admin calls with token.
func (c *SDKClient) WithAdminToken(token string) *SDKClient {
	out := *c
	out.AdminToken = token
	return &out
}
