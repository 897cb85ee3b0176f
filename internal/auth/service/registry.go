package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/metrics"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/idx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

const (
	DefaultTokenTTL = time.Hour
	MaxTokenTTL     = 24 * time.Hour

	maxNameLength        = 255
	maxDescriptionLength = 1024
)

// scope-token from RFC 6749 section 3.3.
var scopeTokenRe = regexp.MustCompile(`^[\x21\x23-\x5B\x5D-\x7E]+$`)

// ClientSpec is a registration request.
type ClientSpec struct {
	Name       string
	TenantID   string
	Scopes     []string
	GrantTypes []string

	// AccessTokenTTLSeconds is nil when the server default applies.
	AccessTokenTTLSeconds *int

	ContactEmail string
	Description  string
}

// RegisteredClient carries the only copy of the plaintext secret.
type RegisteredClient struct {
	Client          domain.Client
	PlaintextSecret string
}

// SeedClient is a client with a fixed id and secret created at startup.
type SeedClient struct {
	ID     string
	Secret string
	Spec   ClientSpec

	// Status is ACTIVE when empty.
	Status domain.ClientStatus
}

// Registry owns client registration. Writes are serialized on mu; reads go
// straight to the store.
type Registry struct {
	Store   store.Store
	Hasher  *cryptox.SecretHasher
	Metrics metrics.Recorder

	// MaxTokenTTL bounds per-client token lifetimes. Defaults to MaxTokenTTL.
	MaxTokenTTL time.Duration

	// Clock overrides time.Now in tests.
	Clock func() time.Time

	mu sync.Mutex
}

func (r *Registry) now() time.Time {
	if r.Clock != nil {
		return r.Clock().UTC()
	}
	return time.Now().UTC()
}

func (r *Registry) recorder() metrics.Recorder {
	if r.Metrics == nil {
		return metrics.NewNoop()
	}
	return r.Metrics
}

// Register validates spec, generates the client id and secret, and stores
// only the secret's hash.
func (r *Registry) Register(ctx context.Context, spec ClientSpec) (RegisteredClient, error) {
	l := slogx.FromContext(ctx)

	client, err := r.buildClient(spec)
	if err != nil {
		l.Info("client registration rejected", "error", err)
		return RegisteredClient{}, err
	}

	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return RegisteredClient{}, fmt.Errorf("generate client secret: %w", err)
	}
	client.SecretHash, err = r.Hasher.Hash(secret)
	if err != nil {
		return RegisteredClient{}, fmt.Errorf("hash client secret: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	client.ID = idx.Prefixed(client.Name)
	client.CreatedAt = r.now()
	client.UpdatedAt = client.CreatedAt

	if err := r.Store.Clients().CreateClient(ctx, client); err != nil {
		l.Error("failed to store client", "error", err)
		return RegisteredClient{}, fmt.Errorf("create client: %w", err)
	}

	r.recorder().RecordClientRegistered()
	_, _ = r.Count(ctx)
	l.Info("client registered",
		"client_id", client.ID,
		"tenant_id", client.TenantID,
		"scopes", client.Scopes,
	)

	client.SecretHash = ""
	return RegisteredClient{Client: client, PlaintextSecret: secret}, nil
}

// Lookup returns the client without its secret hash.
func (r *Registry) Lookup(ctx context.Context, clientID string) (domain.Client, error) {
	c, err := r.Store.Clients().GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrClientNotFound
		}
		return domain.Client{}, fmt.Errorf("get client: %w", err)
	}
	c.SecretHash = ""
	return c, nil
}

// List returns clients oldest first, without secret hashes.
func (r *Registry) List(ctx context.Context, f store.ClientFilter) ([]domain.Client, error) {
	clients, err := r.Store.Clients().ListClients(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	for i := range clients {
		clients[i].SecretHash = ""
	}
	return clients, nil
}

// Secret always fails: plaintext secrets are never stored.
func (r *Registry) Secret(ctx context.Context, clientID string) error {
	if _, err := r.Lookup(ctx, clientID); err != nil {
		return err
	}
	return ErrSecretNotRetrievable
}

// Deactivate marks the client DEPRECATED. It can no longer obtain tokens;
// tokens already issued stay valid until they expire.
func (r *Registry) Deactivate(ctx context.Context, clientID string) (domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.Lookup(ctx, clientID)
	if err != nil {
		return domain.Client{}, err
	}
	if c.Status == domain.ClientDeprecated {
		return c, nil
	}

	now := r.now()
	if err := r.Store.Clients().UpdateClientStatus(ctx, clientID, domain.ClientDeprecated, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrClientNotFound
		}
		return domain.Client{}, fmt.Errorf("deactivate client: %w", err)
	}

	r.recorder().RecordClientDeactivated()
	slogx.FromContext(ctx).Info("client deactivated", "client_id", clientID)

	c.Status = domain.ClientDeprecated
	c.UpdatedAt = now
	return c, nil
}

// Count returns the number of stored clients and refreshes the clients gauge.
func (r *Registry) Count(ctx context.Context) (int, error) {
	n, err := r.Store.Clients().CountClients(ctx)
	if err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	r.recorder().SetClients(n)
	return n, nil
}

// Seed creates each client that does not exist yet. Existing clients are
// left untouched, so running it on every start is safe. It returns the
// number of clients created.
func (r *Registry) Seed(ctx context.Context, seeds []SeedClient) (int, error) {
	l := slogx.FromContext(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	created := 0
	for _, s := range seeds {
		if strings.TrimSpace(s.ID) == "" {
			return created, specError("clientId", "is required for seeded clients")
		}
		if s.Secret == "" {
			return created, specError("clientSecret", "is required for seeded clients")
		}

		_, err := r.Store.Clients().GetClientByID(ctx, s.ID)
		if err == nil {
			l.Debug("seed client already exists", "client_id", s.ID)
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return created, fmt.Errorf("get seed client %s: %w", s.ID, err)
		}

		client, err := r.buildClient(s.Spec)
		if err != nil {
			return created, fmt.Errorf("seed client %s: %w", s.ID, err)
		}
		if s.Status != "" {
			if !s.Status.Valid() {
				return created, fmt.Errorf("seed client %s: %w", s.ID, specError("status", fmt.Sprintf("unknown status %q", s.Status)))
			}
			client.Status = s.Status
		}
		client.ID = s.ID
		client.CreatedAt = r.now()
		client.UpdatedAt = client.CreatedAt
		if client.SecretHash, err = r.Hasher.Hash(s.Secret); err != nil {
			return created, fmt.Errorf("hash seed secret: %w", err)
		}

		if err := r.Store.Clients().CreateClient(ctx, client); err != nil {
			return created, fmt.Errorf("create seed client %s: %w", s.ID, err)
		}
		created++
		r.recorder().RecordClientRegistered()
		_, _ = r.Count(ctx)
		l.Info("seeded client", "client_id", s.ID, "tenant_id", client.TenantID)
	}
	return created, nil
}

// buildClient validates spec and returns a client without id, secret or
// timestamps.
func (r *Registry) buildClient(spec ClientSpec) (domain.Client, error) {
	name := strings.TrimSpace(spec.Name)
	tenant := strings.TrimSpace(spec.TenantID)

	switch {
	case name == "":
		return domain.Client{}, specError("clientName", "is required")
	case len(name) > maxNameLength:
		return domain.Client{}, specError("clientName", "is too long")
	case tenant == "":
		return domain.Client{}, specError("tenantId", "is required")
	case len(tenant) > maxNameLength:
		return domain.Client{}, specError("tenantId", "is too long")
	}

	scopes := dedupe(spec.Scopes)
	if len(scopes) == 0 {
		return domain.Client{}, specError("scopes", "must not be empty")
	}
	for _, s := range scopes {
		if !scopeTokenRe.MatchString(s) {
			return domain.Client{}, specError("scopes", fmt.Sprintf("contains invalid scope %q", s))
		}
	}

	grants := dedupe(spec.GrantTypes)
	if len(grants) == 0 {
		grants = []string{domain.GrantClientCredentials}
	}
	for _, g := range grants {
		if g != domain.GrantClientCredentials {
			return domain.Client{}, specError("grantTypes", fmt.Sprintf("unsupported grant type %q", g))
		}
	}

	var ttl time.Duration
	if spec.AccessTokenTTLSeconds != nil {
		maxTTL := r.MaxTokenTTL
		if maxTTL <= 0 {
			maxTTL = MaxTokenTTL
		}
		// Bound the seconds before converting so huge values cannot wrap.
		secs := int64(*spec.AccessTokenTTLSeconds)
		maxSecs := int64(maxTTL / time.Second)
		if secs <= 0 {
			return domain.Client{}, specError("accessTokenValiditySeconds", "must be positive")
		}
		if secs > maxSecs {
			return domain.Client{}, specError("accessTokenValiditySeconds", fmt.Sprintf("must not exceed %d", maxSecs))
		}
		ttl = time.Duration(secs) * time.Second
	}

	email := strings.TrimSpace(spec.ContactEmail)
	if email != "" {
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			return domain.Client{}, specError("contactEmail", "is not a valid address")
		}
	}

	if len(spec.Description) > maxDescriptionLength {
		return domain.Client{}, specError("description", "is too long")
	}

	return domain.Client{
		Name:           name,
		TenantID:       tenant,
		Scopes:         scopes,
		GrantTypes:     grants,
		AccessTokenTTL: ttl,
		ContactEmail:   email,
		Description:    spec.Description,
		Status:         domain.ClientActive,
	}, nil
}

// dedupe trims, drops empties and removes duplicates, keeping first order.
func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
