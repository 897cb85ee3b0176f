package httpx

import (
	"errors"
	"net/http"
	"net/url"
)

// Client authentication methods (RFC 7591 token_endpoint_auth_method).
const (
	AuthMethodSecretBasic = "client_secret_basic"
	AuthMethodSecretPost  = "client_secret_post"
)

var (
	ErrNoClientCredentials = errors.New("httpx: no client credentials")
	ErrMultipleAuthMethods = errors.New("httpx: more than one client authentication method")
	ErrMalformedBasicAuth  = errors.New("httpx: malformed basic authorization header")
)

// ClientCredentials are the client id and secret presented on a request.
type ClientCredentials struct {
	ID     string
	Secret string
	Method string
}

// ParseClientCredentials reads client credentials from HTTP Basic auth or
// the client_id/client_secret form fields. r.ParseForm must have been
// called. Using both methods at once is rejected (RFC 6749 section 2.3).
func ParseClientCredentials(r *http.Request) (ClientCredentials, error) {
	formID := r.PostForm.Get("client_id")
	formSecret := r.PostForm.Get("client_secret")

	if r.Header.Get("Authorization") != "" {
		user, pass, ok := r.BasicAuth()
		if !ok {
			if _, bearer := BearerToken(r); bearer {
				return fromForm(formID, formSecret)
			}
			return ClientCredentials{}, ErrMalformedBasicAuth
		}
		if formSecret != "" {
			return ClientCredentials{}, ErrMultipleAuthMethods
		}

		// RFC 6749 section 2.3.1: both parts are form-urlencoded.
		id, err := url.QueryUnescape(user)
		if err != nil {
			return ClientCredentials{}, ErrMalformedBasicAuth
		}
		secret, err := url.QueryUnescape(pass)
		if err != nil {
			return ClientCredentials{}, ErrMalformedBasicAuth
		}
		return ClientCredentials{ID: id, Secret: secret, Method: AuthMethodSecretBasic}, nil
	}

	return fromForm(formID, formSecret)
}

func fromForm(id, secret string) (ClientCredentials, error) {
	if id == "" {
		return ClientCredentials{}, ErrNoClientCredentials
	}
	return ClientCredentials{ID: id, Secret: secret, Method: AuthMethodSecretPost}, nil
}

// ClientIDKeyExtractor keys rate limits on the presented client id, falling
// back to the caller IP.
func ClientIDKeyExtractor(r *http.Request) string {
	if user, _, ok := r.BasicAuth(); ok && user != "" {
		return "client:" + user
	}
	if err := r.ParseForm(); err == nil {
		if id := r.PostForm.Get("client_id"); id != "" {
			return "client:" + id
		}
	}
	return IPKeyExtractor(r)
}
