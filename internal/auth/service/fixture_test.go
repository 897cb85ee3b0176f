package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/metrics"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://auth.test"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// env wires every service against an in-memory database and a shared fake
// clock.
type env struct {
	clock        *testClock
	store        *sqlite.Store
	metrics      *metrics.Metrics
	keys         *jwtx.KeyManager
	registry     *Registry
	validator    *Validator
	issuer       *Issuer
	introspector *Introspector
	tokens       *TokenService
	rotation     *KeyRotationService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.NewStore(sqlite.MemoryDSN)
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	hasher, err := cryptox.NewSecretHasherWithParams("pepper", cryptox.Argon2Params{
		Memory: 1024, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16,
	})
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := metrics.New()

	km, err := jwtx.NewKeyManager(ctx, jwtx.Options{
		Algorithm: jwtx.AlgorithmEdDSA,
		Retention: 2 * time.Hour,
		Clock:     clock.Now,
	})
	require.NoError(t, err)

	e := &env{clock: clock, store: st, metrics: m, keys: km}
	e.registry = &Registry{Store: st, Hasher: hasher, Metrics: m, Clock: clock.Now}
	e.validator = &Validator{Store: st, Hasher: hasher}
	e.issuer = &Issuer{Keys: km, IssuerURL: testIssuer, DefaultTTL: DefaultTokenTTL, Clock: clock.Now}
	e.introspector = &Introspector{
		Verifier: jwtx.NewVerifier(km, jwtx.VerifyOptions{Issuer: testIssuer}),
		Metrics:  m,
		Clock:    clock.Now,
	}
	e.tokens = &TokenService{Validator: e.validator, Issuer: e.issuer, Store: st, Metrics: m}
	e.rotation = &KeyRotationService{Keys: km, Metrics: m}
	return e
}

func (e *env) register(t *testing.T, spec ClientSpec) RegisteredClient {
	t.Helper()
	rc, err := e.registry.Register(context.Background(), spec)
	require.NoError(t, err)
	return rc
}

func svcSpec() ClientSpec {
	return ClientSpec{
		Name:       "svc",
		TenantID:   "t1",
		Scopes:     []string{"read:data"},
		GrantTypes: []string{"client_credentials"},
	}
}

func intPtr(v int) *int { return &v }
