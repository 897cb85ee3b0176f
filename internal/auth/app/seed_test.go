package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
clients:
  - client_id: reporting-svc
    client_secret: ${SEED_SECRET}
    client_name: Reporting
    tenant_id: t1
    scopes: [read:data, write:reports]
    access_token_validity_seconds: 600
  - client_id: billing-svc
    client_secret: billing-secret
    client_name: Billing
    tenant_id: t2
    scopes: [read:invoices]
    status: suspended
`

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadSeedFile(t *testing.T) {
	t.Setenv("SEED_SECRET", "from-env")

	seeds, err := LoadSeedFile(writeSeed(t, seedYAML))
	require.NoError(t, err)
	require.Len(t, seeds, 2)

	require.Equal(t, "reporting-svc", seeds[0].ID)
	require.Equal(t, "from-env", seeds[0].Secret)
	require.Equal(t, []string{"read:data", "write:reports"}, seeds[0].Spec.Scopes)
	require.NotNil(t, seeds[0].Spec.AccessTokenTTLSeconds)
	require.Equal(t, 600, *seeds[0].Spec.AccessTokenTTLSeconds)
	require.Nil(t, seeds[1].Spec.AccessTokenTTLSeconds)

	require.Empty(t, seeds[0].Status)
	require.Equal(t, domain.ClientSuspended, seeds[1].Status)
}

func TestLoadSeedFileErrors(t *testing.T) {
	_, err := LoadSeedFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = LoadSeedFile(writeSeed(t, "clients: [unterminated"))
	require.ErrorContains(t, err, "parse seed file")
}

func TestSeedClientsIsIdempotent(t *testing.T) {
	ctx := context.Background()

	st, err := sqlite.NewStore(sqlite.MemoryDSN)
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	hasher, err := cryptox.NewSecretHasherWithParams("pepper", cryptox.Argon2Params{
		Memory: 1024, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16,
	})
	require.NoError(t, err)
	registry := &service.Registry{Store: st, Hasher: hasher}

	t.Setenv("SEED_SECRET", "from-env")
	path := writeSeed(t, seedYAML)

	created, err := SeedClients(ctx, path, registry)
	require.NoError(t, err)
	require.Equal(t, 2, created)

	created, err = SeedClients(ctx, path, registry)
	require.NoError(t, err)
	require.Zero(t, created)

	validator := &service.Validator{Store: st, Hasher: hasher}
	grant, err := validator.Validate(ctx, "reporting-svc", "from-env", "read:data")
	require.NoError(t, err)
	require.Equal(t, "t1", grant.TenantID)

	_, err = validator.Validate(ctx, "billing-svc", "billing-secret", "")
	require.ErrorIs(t, err, service.ErrInvalidClient)

	created, err = SeedClients(ctx, "", registry)
	require.NoError(t, err)
	require.Zero(t, created)
}
