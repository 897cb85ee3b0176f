package service

import (
	"errors"
	"fmt"

	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

var (
	ErrInvalidClientSpec    = errors.New("invalid_client_metadata")
	ErrInvalidClient        = errors.New("invalid_client")
	ErrInvalidScope         = errors.New("invalid_scope")
	ErrClientNotFound       = errors.New("client not found")
	ErrSecretNotRetrievable = errors.New("secret_not_retrievable")
	ErrKeyNotFound          = errors.New("signing key not found")
	ErrKeyAlreadyRetired    = errors.New("signing key already retired")

	// ErrNoActiveKey is returned by issuance while no key is active.
	ErrNoActiveKey = jwtx.ErrNoActiveKey
)

// ClientSpecError names the registration field that failed validation.
// It matches ErrInvalidClientSpec under errors.Is.
type ClientSpecError struct {
	Field  string
	Reason string
}

func (e *ClientSpecError) Error() string {
	return fmt.Sprintf("invalid client metadata: %s %s", e.Field, e.Reason)
}

func (e *ClientSpecError) Is(target error) bool { return target == ErrInvalidClientSpec }

func specError(field, reason string) error {
	return &ClientSpecError{Field: field, Reason: reason}
}
