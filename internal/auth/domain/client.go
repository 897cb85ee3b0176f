package domain

import (
	"slices"
	"time"
)

// ClientStatus is the lifecycle state of a registered client. Only ACTIVE
// clients may obtain tokens.
type ClientStatus string

const (
	ClientActive     ClientStatus = "ACTIVE"
	ClientSuspended  ClientStatus = "SUSPENDED"
	ClientDeprecated ClientStatus = "DEPRECATED"
)

func (s ClientStatus) Valid() bool {
	switch s {
	case ClientActive, ClientSuspended, ClientDeprecated:
		return true
	}
	return false
}

// GrantClientCredentials is the only grant this server issues tokens for.
const GrantClientCredentials = "client_credentials"

// Client is a registered confidential client. Clients are immutable after
// registration apart from Status and the usage timestamps.
type Client struct {
	ID         string
	Name       string
	TenantID   string
	SecretHash string
	Scopes     []string
	GrantTypes []string

	// AccessTokenTTL is zero when the server default applies.
	AccessTokenTTL time.Duration

	ContactEmail string
	Description  string
	Status       ClientStatus

	CreatedAt  time.Time
	UpdatedAt  time.Time
	LastUsedAt *time.Time
}

func (c Client) HasGrantType(gt string) bool { return slices.Contains(c.GrantTypes, gt) }
func (c Client) HasScope(scope string) bool  { return slices.Contains(c.Scopes, scope) }
func (c Client) IsActive() bool              { return c.Status == ClientActive }
