package httpx

import (
	"context"

	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

type ctxKey string

const (
	ctxKeyCaller ctxKey = "caller"
	ctxKeyClaims ctxKey = "claims"
)

// Caller identifies who passed an admin check: "admin-token" for the static
// token, the client id for an access token, or "" when admin auth is off.
func Caller(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyCaller).(string)
	return v
}

// ClaimsFromContext returns the verified access token claims, if any.
func ClaimsFromContext(ctx context.Context) (*jwtx.Claims, bool) {
	c, ok := ctx.Value(ctxKeyClaims).(*jwtx.Claims)
	return c, ok
}

func withCaller(ctx context.Context, caller string, claims *jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, ctxKeyCaller, caller)
	if claims != nil {
		ctx = context.WithValue(ctx, ctxKeyClaims, claims)
	}
	return ctx
}
