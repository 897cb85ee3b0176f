/*
Package authsdk is a Go client for the Tollgate authorization server.

# Overview

SDKClient wraps every public and admin endpoint:

	client := authsdk.NewSDKClient("http://localhost:8080")

	// Register a client (admin). The secret is only ever returned here.
	reg, err := client.WithAdminToken(adminToken).RegisterClient(ctx, authsdk.RegisterClientRequest{
		ClientName: "svc",
		TenantID:   "t1",
		Scopes:     []string{"read:data"},
	})

	// client_credentials grant
	tok, err := client.ClientCredentialsGrant(ctx, reg.ClientID, reg.ClientSecret, []string{"read:data"})

	// Online check through the server
	info, err := client.Introspect(ctx, tok.AccessToken)

	// Offline check against the published JWKS
	claims, err := client.VerifyToken(ctx, tok.AccessToken, issuer)

# Errors

Every non-2xx response becomes an *OAuth2Error carrying the HTTP status and
the OAuth2 error code. The predefined errors match by code under errors.Is:

	_, err := client.ClientCredentialsGrant(ctx, id, secret, []string{"write:reports"})
	if errors.Is(err, authsdk.ErrInvalidScope) {
		// the client was not granted write:reports
	}

The same values are used by the server to write its error responses, so
both sides agree on codes and status codes.

# Admin Authentication

Client registration, deactivation, listing and key management send
AdminToken as a bearer token. It may be the server's static admin token or
an access token that carries the admin scope.
*/
package authsdk
