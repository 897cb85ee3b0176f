package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Drivers implement it and expose
// sub-repositories; a Tx exposes the same repositories bound to one
// transaction, and nested transactions are refused.
type Store interface {
	Clients() Clients
	SigningKeys() SigningKeys

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller must Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// ClientFilter narrows ListClients. Zero values match everything.
type ClientFilter struct {
	TenantID string
	Status   domain.ClientStatus
}

type Clients interface {
	// CreateClient inserts c. Returns ErrAlreadyExists on an id clash.
	CreateClient(ctx context.Context, c domain.Client) error

	GetClientByID(ctx context.Context, id string) (domain.Client, error)

	// ListClients returns matching clients oldest first.
	ListClients(ctx context.Context, f ClientFilter) ([]domain.Client, error)

	UpdateClientStatus(ctx context.Context, id string, status domain.ClientStatus, at time.Time) error

	// TouchClientLastUsed stamps last_used_at without bumping updated_at.
	TouchClientLastUsed(ctx context.Context, id string, at time.Time) error

	CountClients(ctx context.Context) (int, error)
}

type SigningKeys interface {
	CreateSigningKey(ctx context.Context, key domain.SigningKey) error

	GetSigningKeyByKid(ctx context.Context, kid string) (domain.SigningKey, error)

	// ListSigningKeys returns every stored key, newest first.
	ListSigningKeys(ctx context.Context) ([]domain.SigningKey, error)

	// RetireSigningKey marks an active key retired. Returns ErrNotFound when
	// no active key has that kid.
	RetireSigningKey(ctx context.Context, kid string, retiredAt, purgeAfter time.Time) error

	DeleteSigningKeys(ctx context.Context, kids []string) error
}
