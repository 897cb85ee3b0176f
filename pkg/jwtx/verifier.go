package jwtx

import (
	"crypto"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrInvalid     = errors.New("jwtx: invalid token")
)

// VerificationKey is a public key bound to its kid and algorithm.
type VerificationKey struct {
	Kid    string
	Alg    string
	Public crypto.PublicKey
}

// KeyResolver finds the verification key for a kid at a point in time.
// Keys past their retention must not be returned.
type KeyResolver interface {
	VerificationKey(kid string, now time.Time) (VerificationKey, error)
}

// VerifyOptions captures the expectations a Verifier enforces.
type VerifyOptions struct {
	// Issuer the token must carry. Empty skips the check.
	Issuer string

	// Leeway for clock skew on exp and nbf.
	Leeway time.Duration
}

// Verifier validates signature, kid, algorithm, issuer and lifetime of an
// access token.
type Verifier struct {
	keys KeyResolver
	opts VerifyOptions
}

func NewVerifier(keys KeyResolver, opts VerifyOptions) *Verifier {
	return &Verifier{keys: keys, opts: opts}
}

// Verify parses token as of now. All failures wrap one of the package
// sentinels so callers can branch with errors.Is.
func (v *Verifier) Verify(token string, now time.Time) (*Claims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods(SupportedAlgorithms),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.opts.Leeway),
	}
	if v.opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.opts.Issuer))
	}

	parsed, err := jwt.NewParser(parserOpts...).ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("%w: missing kid header", ErrUnknownKID)
		}

		key, err := v.keys.VerificationKey(kid, now)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKID, kid)
		}
		if t.Method.Alg() != key.Alg {
			return nil, fmt.Errorf("%w: header %s, key %s", ErrAlgMismatch, t.Method.Alg(), key.Alg)
		}
		return key.Public, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, ErrUnknownKID), errors.Is(err, ErrAlgMismatch):
		return err
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrInvalidSig, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return fmt.Errorf("%w: %v", ErrNotYetValid, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return fmt.Errorf("%w: %v", ErrIssuer, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
}
